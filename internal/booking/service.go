package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"trekbook/internal/events"
	"trekbook/internal/logger"
	"trekbook/internal/metrics"
	"trekbook/internal/pricing"
	"trekbook/internal/refund"
)

const (
	DefaultReferenceAttempts = 3
	DefaultNotifyTimeout     = 10 * time.Second
)

// Notifier delivers customer-facing messages. Errors are logged by the
// service and never reach the booking caller.
type Notifier interface {
	NotifyBookingCreated(ctx context.Context, b *Booking) error
	NotifyBookingCancelled(ctx context.Context, b *Booking, q refund.Quote) error
}

type Service struct {
	tx        TxManager
	reader    Reader
	notifier  Notifier
	publisher events.Publisher

	now               func() time.Time
	newReference      ReferenceFunc
	referenceAttempts int
	notifyTimeout     time.Duration

	wg sync.WaitGroup
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithReferenceFunc(fn ReferenceFunc) Option {
	return func(s *Service) { s.newReference = fn }
}

func WithReferenceAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.referenceAttempts = n
		}
	}
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func NewService(tx TxManager, reader Reader, notifier Notifier, publisher events.Publisher, opts ...Option) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	s := &Service{
		tx:                tx,
		reader:            reader,
		notifier:          notifier,
		publisher:         publisher,
		now:               time.Now,
		newReference:      NewReference,
		referenceAttempts: DefaultReferenceAttempts,
		notifyTimeout:     DefaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking reserves seats and records the booking in one transaction.
// A reference collision reruns the whole transaction with a fresh reference;
// capacity failures are returned as is.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResult, error) {
	if err := validateCreate(req); err != nil {
		s.recordFailure("create", err)
		return nil, err
	}

	breakdown := pricing.Calculate(req.UnitPrice, req.ParticipantCount, req.SelectedAddOns).Rounded()

	var (
		created *Booking
		err     error
	)
	for attempt := 1; attempt <= s.referenceAttempts; attempt++ {
		created, err = s.createOnce(ctx, req, breakdown)
		if !errors.Is(err, ErrDuplicateReference) {
			break
		}
		metrics.RecordReferenceCollision()
		logger.Warn("booking reference collision", "attempt", attempt, "batch_id", req.BatchID, "user_id", req.UserID)
	}
	if errors.Is(err, ErrDuplicateReference) {
		err = fmt.Errorf("%w after %d attempts", ErrReferenceCollision, s.referenceAttempts)
	}
	if err != nil {
		err = classify("create booking", err)
		s.recordFailure("create", err)
		return nil, err
	}

	metrics.RecordBooking("created", created.Participants)
	logger.Info("booking created",
		"booking_id", created.ID,
		"reference", created.BookingReference,
		"batch_id", created.BatchID,
		"participants", created.Participants,
	)

	snapshot := *created
	s.dispatch(ctx, "booking_confirmation", func(ctx context.Context) error {
		return s.notifier.NotifyBookingCreated(ctx, &snapshot)
	})
	s.dispatch(ctx, events.BookingCreated, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, newEvent(events.BookingCreated, &snapshot, s.now()))
	})

	return &CreateBookingResult{
		BookingID:        created.ID,
		BookingReference: created.BookingReference,
		PriceBreakdown:   breakdown,
	}, nil
}

func (s *Service) createOnce(ctx context.Context, req CreateBookingRequest, breakdown pricing.Breakdown) (*Booking, error) {
	var created *Booking

	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		conflict, err := uow.Records().FindConflicting(ctx, req.UserID, req.TrekID, req.BatchID)
		if err != nil {
			return fmt.Errorf("find conflicting booking: %w", err)
		}
		if conflict != nil {
			if conflict.Status == StatusCompleted {
				return ErrAlreadyCompleted
			}
			return ErrDuplicatePending
		}

		b := s.draft(req, breakdown)

		if err := uow.Inventory().Reserve(ctx, req.BatchID, req.ParticipantCount); err != nil {
			return err
		}

		participants := participantRows(req.Participants)
		addOns := addOnRows(req.SelectedAddOns, req.ParticipantCount)
		if err := uow.Records().Insert(ctx, b, participants, addOns); err != nil {
			return err
		}

		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *Service) draft(req CreateBookingRequest, breakdown pricing.Breakdown) *Booking {
	deadline := req.StartDate.Add(-PaymentLeadTime)

	return &Booking{
		BookingReference: s.newReference(req.TrekID, req.BatchID, req.StartDate),
		UserID:           req.UserID,
		TrekID:           req.TrekID,
		BatchID:          req.BatchID,
		CustomerName:     strings.TrimSpace(req.PersonalInfo.Name),
		CustomerEmail:    strings.TrimSpace(req.PersonalInfo.Email),
		CustomerPhone:    req.PersonalInfo.Phone,
		EmergencyContact: req.PersonalInfo.EmergencyContact,
		SpecialRequests:  req.PersonalInfo.SpecialRequests,
		TrekName:         req.TrekName,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Participants:     req.ParticipantCount,
		BasePrice:        breakdown.BasePrice,
		AddOnsTotal:      breakdown.AddOnsTotal,
		Subtotal:         breakdown.Subtotal,
		TaxAmount:        breakdown.TaxAmount,
		DiscountAmount:   decimal.Zero,
		TotalAmount:      breakdown.TotalAmount,
		PaymentStatus:    PaymentPending,
		AmountPaid:       decimal.Zero,
		BalanceDue:       breakdown.TotalAmount,
		PaymentDeadline:  &deadline,
		Status:           StatusPending,
		RefundAmount:     decimal.Zero,
		CancellationFee:  decimal.Zero,
	}
}

func participantRows(in []Participant) []Participant {
	out := make([]Participant, len(in))
	for i, p := range in {
		p.ID = 0
		p.BookingID = 0
		p.Position = i + 1
		p.IsPrimary = i == 0
		out[i] = p
	}
	return out
}

func addOnRows(selected []pricing.AddOn, participants int) []AddOn {
	out := []AddOn{}
	for _, a := range pricing.Selected(selected) {
		out = append(out, AddOn{
			AddOnID:    a.ID,
			Name:       a.Name,
			Quantity:   participants,
			UnitPrice:  a.Price.Round(2),
			TotalPrice: pricing.LineTotal(a.Price, participants).Round(2),
		})
	}
	return out
}

// CancelBooking cancels an open booking owned by req.UserID, stamps the refund
// quote on it and returns its seats to the batch.
func (s *Service) CancelBooking(ctx context.Context, req CancelBookingRequest) (*CancelBookingResult, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		s.recordFailure("cancel", ErrInvalidReason)
		return nil, ErrInvalidReason
	}
	if !req.AcceptedTerms {
		s.recordFailure("cancel", ErrTermsNotAccepted)
		return nil, ErrTermsNotAccepted
	}

	now := s.now()

	var (
		cancelled *Booking
		quote     refund.Quote
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		b, err := uow.Records().GetForUpdate(ctx, req.BookingID, req.UserID)
		if err != nil {
			return err
		}

		switch b.Status {
		case StatusCancelled:
			return ErrAlreadyCancelled
		case StatusCompleted:
			return ErrAlreadyCompleted
		}

		q, err := refund.Calculate(refund.DaysUntil(b.StartDate, now), b.TotalAmount)
		if err != nil {
			return err
		}

		if err := uow.Records().MarkCancelled(ctx, b.ID, reason, q.RefundAmount, q.CancellationFee, now); err != nil {
			return err
		}

		if err := uow.Inventory().Release(ctx, b.BatchID, b.Participants); err != nil {
			return fmt.Errorf("release %d slots of batch %d: %w", b.Participants, b.BatchID, err)
		}

		b.Status = StatusCancelled
		b.RefundAmount = q.RefundAmount
		b.CancellationFee = q.CancellationFee
		b.CancellationReason = &reason
		b.CancelledAt = &now

		cancelled = b
		quote = q
		return nil
	})
	if err != nil {
		err = classify("cancel booking", err)
		s.recordFailure("cancel", err)
		return nil, err
	}

	metrics.RecordBookingCancellation(quote.RefundAmount.InexactFloat64())
	logger.Info("booking cancelled",
		"booking_id", cancelled.ID,
		"reference", cancelled.BookingReference,
		"refund_percentage", quote.RefundPercentage,
		"refund_amount", quote.RefundAmount.StringFixed(2),
	)

	snapshot := *cancelled
	s.dispatch(ctx, "booking_cancellation", func(ctx context.Context) error {
		return s.notifier.NotifyBookingCancelled(ctx, &snapshot, quote)
	})
	s.dispatch(ctx, events.BookingCancelled, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, newEvent(events.BookingCancelled, &snapshot, now))
	})

	return &CancelBookingResult{
		RefundAmount:     quote.RefundAmount,
		RefundPercentage: quote.RefundPercentage,
		CancellationFee:  quote.CancellationFee,
	}, nil
}

// GetBooking returns a booking of userID with its participants and add-ons.
// Bookings of other users are reported as not found.
func (s *Service) GetBooking(ctx context.Context, bookingID, userID int) (*BookingDetails, error) {
	b, err := s.reader.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrNotFound
	}

	participants, err := s.reader.GetParticipants(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	addOns, err := s.reader.GetAddOns(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return &BookingDetails{Booking: *b, ParticipantList: participants, AddOns: addOns}, nil
}

func (s *Service) ListUserBookings(ctx context.Context, userID int) ([]Booking, error) {
	return s.reader.GetUserBookings(ctx, userID)
}

func (s *Service) ListBatchBookings(ctx context.Context, batchID int) ([]Booking, error) {
	return s.reader.GetBookingsByBatch(ctx, batchID)
}

// Wait blocks until every notification dispatched so far has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// dispatch runs fn in the background once the transaction has committed. It
// keeps the request's values but not its cancellation.
func (s *Service) dispatch(parent context.Context, kind string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("notification panicked", "kind", kind, "panic", r)
				metrics.RecordNotification(kind, "failed")
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.notifyTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.Error("notification failed", "kind", kind, "error", err)
			metrics.RecordNotification(kind, "failed")
			return
		}
		metrics.RecordNotification(kind, "dispatched")
	}()
}

func (s *Service) recordFailure(op string, err error) {
	reason := reasonCode(err)
	metrics.RecordBookingFailure(op, reason)
	if op == "create" {
		metrics.RecordBooking("rejected", 0)
	}
	if reason == "transaction_failure" {
		logger.Error("booking transaction failed", "operation", op, "error", err)
		return
	}
	logger.Debug("booking request rejected", "operation", op, "reason", reason)
}

func newEvent(eventType string, b *Booking, at time.Time) events.Event {
	return events.New(eventType, events.Event{
		BookingID:    b.ID,
		Reference:    b.BookingReference,
		UserID:       b.UserID,
		TrekID:       b.TrekID,
		BatchID:      b.BatchID,
		Participants: b.Participants,
		CustomerName: b.CustomerName,
		TrekName:     b.TrekName,
	}, at)
}

func validateCreate(req CreateBookingRequest) error {
	switch {
	case req.UserID <= 0:
		return &ValidationError{Field: "user_id", Reason: "must be positive"}
	case req.TrekID <= 0:
		return &ValidationError{Field: "trek_id", Reason: "must be positive"}
	case req.BatchID <= 0:
		return &ValidationError{Field: "batch_id", Reason: "must be positive"}
	case req.ParticipantCount <= 0:
		return &ValidationError{Field: "participants", Reason: "at least one participant is required"}
	case len(req.Participants) != req.ParticipantCount:
		return &ValidationError{Field: "participants", Reason: fmt.Sprintf("expected %d participant entries, got %d", req.ParticipantCount, len(req.Participants))}
	case req.UnitPrice.IsNegative():
		return &ValidationError{Field: "unit_price", Reason: "must not be negative"}
	case req.EndDate.Before(req.StartDate):
		return &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	case strings.TrimSpace(req.PersonalInfo.Name) == "":
		return &ValidationError{Field: "personal_info.name", Reason: "is required"}
	case strings.TrimSpace(req.PersonalInfo.Email) == "":
		return &ValidationError{Field: "personal_info.email", Reason: "is required"}
	}

	for i, p := range req.Participants {
		if strings.TrimSpace(p.Name) == "" {
			return &ValidationError{Field: fmt.Sprintf("participants[%d].name", i), Reason: "is required"}
		}
	}
	seen := make(map[int]bool, len(req.SelectedAddOns))
	for i, a := range req.SelectedAddOns {
		if seen[a.ID] {
			return &ValidationError{Field: fmt.Sprintf("addons[%d].id", i), Reason: fmt.Sprintf("add-on %d is listed more than once", a.ID)}
		}
		seen[a.ID] = true
		if a.Selected && a.Price.IsNegative() {
			return &ValidationError{Field: fmt.Sprintf("addons[%d].price", i), Reason: "must not be negative"}
		}
	}

	return nil
}

type nopNotifier struct{}

func (nopNotifier) NotifyBookingCreated(context.Context, *Booking) error { return nil }

func (nopNotifier) NotifyBookingCancelled(context.Context, *Booking, refund.Quote) error { return nil }
