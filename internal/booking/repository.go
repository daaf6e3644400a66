package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	referenceConstraint = "bookings_booking_reference_key"
	openBookingIndex    = "uniq_bookings_open_per_user"
	uniqueViolationCode = "23505"
)

const bookingColumns = `
	id, booking_reference, user_id, trek_id, batch_id,
	customer_name, customer_email, customer_phone, emergency_contact, special_requests,
	trek_name, start_date, end_date, participants,
	base_price, addons_total, subtotal, tax_amount, discount_amount, total_amount,
	payment_status, amount_paid, balance_due, payment_deadline, booking_status,
	refund_amount, cancellation_fee, cancellation_reason, cancelled_at,
	confirmation_sent, created_at, updated_at
`

type repository struct {
	db sqlx.ExtContext
}

// NewRepository binds the record store to db, which is either the pool or an
// open *sqlx.Tx.
func NewRepository(db sqlx.ExtContext) Repository {
	return &repository{db: db}
}

func (r *repository) FindConflicting(ctx context.Context, userID, trekID, batchID int) (*Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND trek_id = $2 AND batch_id = $3
			AND booking_status IN ('pending', 'confirmed', 'completed')
		ORDER BY CASE booking_status WHEN 'completed' THEN 0 ELSE 1 END, created_at DESC
		LIMIT 1
	`

	var b Booking
	err := sqlx.GetContext(ctx, r.db, &b, query, userID, trekID, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &b, nil
}

func (r *repository) Insert(ctx context.Context, b *Booking, participants []Participant, addOns []AddOn) error {
	query := `
		INSERT INTO bookings (
			booking_reference, user_id, trek_id, batch_id,
			customer_name, customer_email, customer_phone, emergency_contact, special_requests,
			trek_name, start_date, end_date, participants,
			base_price, addons_total, subtotal, tax_amount, discount_amount, total_amount,
			payment_status, amount_paid, balance_due, payment_deadline, booking_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		b.BookingReference, b.UserID, b.TrekID, b.BatchID,
		b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.EmergencyContact, b.SpecialRequests,
		b.TrekName, b.StartDate, b.EndDate, b.Participants,
		b.BasePrice, b.AddOnsTotal, b.Subtotal, b.TaxAmount, b.DiscountAmount, b.TotalAmount,
		b.PaymentStatus, b.AmountPaid, b.BalanceDue, b.PaymentDeadline, b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}

	participantQuery := `
		INSERT INTO booking_participants (
			booking_id, position, name, age, gender, phone, email, id_proof, medical_conditions, is_primary
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	for i := range participants {
		p := &participants[i]
		p.BookingID = b.ID
		err := r.db.QueryRowxContext(ctx, participantQuery,
			p.BookingID, p.Position, p.Name, p.Age, p.Gender, p.Phone, p.Email, p.IDProof, p.MedicalConditions, p.IsPrimary,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("insert participant %d: %w", p.Position, err)
		}
	}

	addOnQuery := `
		INSERT INTO booking_addons (booking_id, addon_id, addon_name, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	for i := range addOns {
		a := &addOns[i]
		a.BookingID = b.ID
		err := r.db.QueryRowxContext(ctx, addOnQuery,
			a.BookingID, a.AddOnID, a.Name, a.Quantity, a.UnitPrice, a.TotalPrice,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("insert add-on %d: %w", a.AddOnID, err)
		}
	}

	return nil
}

func (r *repository) GetForUpdate(ctx context.Context, bookingID, userID int) (*Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`

	var b Booking
	err := sqlx.GetContext(ctx, r.db, &b, query, bookingID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &b, nil
}

func (r *repository) MarkCancelled(ctx context.Context, bookingID int, reason string, refundAmount, fee decimal.Decimal, at time.Time) error {
	query := `
		UPDATE bookings
		SET booking_status = 'cancelled', cancellation_reason = $1, refund_amount = $2,
			cancellation_fee = $3, cancelled_at = $4, updated_at = NOW()
		WHERE id = $5 AND booking_status IN ('pending', 'confirmed')
	`

	result, err := r.db.ExecContext(ctx, query, reason, refundAmount, fee, at, bookingID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrAlreadyCancelled
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, bookingID int) (*Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`

	var b Booking
	err := sqlx.GetContext(ctx, r.db, &b, query, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &b, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID int) ([]Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	bookings := []Booking{}
	err := sqlx.SelectContext(ctx, r.db, &bookings, query, userID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) GetBookingsByBatch(ctx context.Context, batchID int) ([]Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE batch_id = $1
		ORDER BY created_at ASC
	`

	bookings := []Booking{}
	err := sqlx.SelectContext(ctx, r.db, &bookings, query, batchID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) GetParticipants(ctx context.Context, bookingID int) ([]Participant, error) {
	query := `
		SELECT id, booking_id, position, name, age, gender, phone, email, id_proof, medical_conditions, is_primary
		FROM booking_participants
		WHERE booking_id = $1
		ORDER BY position ASC
	`

	participants := []Participant{}
	err := sqlx.SelectContext(ctx, r.db, &participants, query, bookingID)
	if err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *repository) GetAddOns(ctx context.Context, bookingID int) ([]AddOn, error) {
	query := `
		SELECT id, booking_id, addon_id, addon_name, quantity, unit_price, total_price
		FROM booking_addons
		WHERE booking_id = $1
		ORDER BY id ASC
	`

	addOns := []AddOn{}
	err := sqlx.SelectContext(ctx, r.db, &addOns, query, bookingID)
	if err != nil {
		return nil, err
	}

	return addOns, nil
}

func (r *repository) MarkConfirmationSent(ctx context.Context, bookingID int) error {
	query := `
		UPDATE bookings
		SET confirmation_sent = TRUE, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, bookingID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapUniqueViolation turns the two unique constraints on bookings into their
// domain errors.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolationCode {
		return err
	}

	switch pqErr.Constraint {
	case referenceConstraint:
		return ErrDuplicateReference
	case openBookingIndex:
		return ErrDuplicatePending
	default:
		return err
	}
}
