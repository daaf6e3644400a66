package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"trekbook/internal/pricing"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	PaymentPending = "pending"
)

// PaymentLeadTime is how long before departure the balance falls due.
const PaymentLeadTime = 7 * 24 * time.Hour

type Booking struct {
	ID                 int             `db:"id" json:"id"`
	BookingReference   string          `db:"booking_reference" json:"booking_reference" example:"TRK12-B34-20261101-7QXA"`
	UserID             int             `db:"user_id" json:"user_id"`
	TrekID             int             `db:"trek_id" json:"trek_id"`
	BatchID            int             `db:"batch_id" json:"batch_id"`
	CustomerName       string          `db:"customer_name" json:"customer_name"`
	CustomerEmail      string          `db:"customer_email" json:"customer_email"`
	CustomerPhone      string          `db:"customer_phone" json:"customer_phone"`
	EmergencyContact   string          `db:"emergency_contact" json:"emergency_contact"`
	SpecialRequests    string          `db:"special_requests" json:"special_requests"`
	TrekName           string          `db:"trek_name" json:"trek_name"`
	StartDate          time.Time       `db:"start_date" json:"start_date"`
	EndDate            time.Time       `db:"end_date" json:"end_date"`
	Participants       int             `db:"participants" json:"participants"`
	BasePrice          decimal.Decimal `db:"base_price" json:"base_price"`
	AddOnsTotal        decimal.Decimal `db:"addons_total" json:"addons_total"`
	Subtotal           decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxAmount          decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	DiscountAmount     decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	TotalAmount        decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaymentStatus      string          `db:"payment_status" json:"payment_status"`
	AmountPaid         decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	BalanceDue         decimal.Decimal `db:"balance_due" json:"balance_due"`
	PaymentDeadline    *time.Time      `db:"payment_deadline" json:"payment_deadline,omitempty"`
	Status             string          `db:"booking_status" json:"booking_status"`
	RefundAmount       decimal.Decimal `db:"refund_amount" json:"refund_amount"`
	CancellationFee    decimal.Decimal `db:"cancellation_fee" json:"cancellation_fee"`
	CancellationReason *string         `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time      `db:"cancelled_at" json:"cancelled_at,omitempty"`
	ConfirmationSent   bool            `db:"confirmation_sent" json:"confirmation_sent"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// Open reports whether the booking still holds seats in its batch.
func (b *Booking) Open() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

type Participant struct {
	ID                int    `db:"id" json:"id"`
	BookingID         int    `db:"booking_id" json:"booking_id"`
	Position          int    `db:"position" json:"position"`
	Name              string `db:"name" json:"name" validate:"required,max=255"`
	Age               int    `db:"age" json:"age" validate:"gte=0,lte=120"`
	Gender            string `db:"gender" json:"gender"`
	Phone             string `db:"phone" json:"phone"`
	Email             string `db:"email" json:"email" validate:"omitempty,email"`
	IDProof           string `db:"id_proof" json:"id_proof"`
	MedicalConditions string `db:"medical_conditions" json:"medical_conditions"`
	IsPrimary         bool   `db:"is_primary" json:"is_primary"`
}

// AddOn is an add-on line frozen on a booking at creation time.
type AddOn struct {
	ID         int             `db:"id" json:"id"`
	BookingID  int             `db:"booking_id" json:"booking_id"`
	AddOnID    int             `db:"addon_id" json:"addon_id"`
	Name       string          `db:"addon_name" json:"addon_name"`
	Quantity   int             `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
}

type BookingDetails struct {
	Booking
	ParticipantList []Participant `json:"participant_list"`
	AddOns          []AddOn       `json:"addons"`
}

type PersonalInfo struct {
	Name             string `json:"name" validate:"required,max=255"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone" validate:"max=50"`
	EmergencyContact string `json:"emergency_contact" validate:"max=255"`
	SpecialRequests  string `json:"special_requests"`
}

type CreateBookingRequest struct {
	UserID           int
	TrekID           int
	BatchID          int
	ParticipantCount int
	Participants     []Participant
	SelectedAddOns   []pricing.AddOn
	StartDate        time.Time
	EndDate          time.Time
	UnitPrice        decimal.Decimal
	TrekName         string
	PersonalInfo     PersonalInfo
}

type CreateBookingResult struct {
	BookingID        int               `json:"booking_id"`
	BookingReference string            `json:"booking_reference"`
	PriceBreakdown   pricing.Breakdown `json:"price_breakdown"`
}

type CancelBookingRequest struct {
	BookingID     int
	UserID        int
	Reason        string
	AcceptedTerms bool
}

type CancelBookingResult struct {
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	RefundPercentage int64           `json:"refund_percentage" example:"75"`
	CancellationFee  decimal.Decimal `json:"cancellation_fee"`
}
