package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"trekbook/internal/api"
	"trekbook/internal/auth"
	"trekbook/internal/inventory"
	"trekbook/internal/logger"
	"trekbook/internal/pricing"
)

type participantInput struct {
	Name              string `json:"name" validate:"required,max=255"`
	Age               int    `json:"age" validate:"gte=0,lte=120"`
	Gender            string `json:"gender" validate:"max=20"`
	Phone             string `json:"phone" validate:"max=50"`
	Email             string `json:"email" validate:"omitempty,email"`
	IDProof           string `json:"id_proof" validate:"max=255"`
	MedicalConditions string `json:"medical_conditions"`
}

type addOnInput struct {
	ID       int             `json:"id" validate:"required,gt=0"`
	Name     string          `json:"name" validate:"required,max=255"`
	Price    decimal.Decimal `json:"price" swaggertype:"string" example:"100.00"`
	Selected bool            `json:"selected"`
}

type CreateBookingBody struct {
	ParticipantCount int                `json:"participant_count" validate:"required,gte=1,lte=50" example:"2"`
	Participants     []participantInput `json:"participants" validate:"required,min=1,dive"`
	AddOns           []addOnInput       `json:"addons" validate:"dive"`
	PersonalInfo     PersonalInfo       `json:"personal_info"`
}

type CancelBookingBody struct {
	Reason        string `json:"reason" example:"Change of travel plans"`
	AcceptedTerms bool   `json:"accepted_terms" example:"true"`
}

type Handler struct {
	svc     *Service
	batches inventory.Reader
}

func NewHandler(svc *Service, batches inventory.Reader) *Handler {
	return &Handler{svc: svc, batches: batches}
}

// CreateBooking godoc
// @Summary      Book seats in a trek batch
// @Description  Reserves seats for all participants and records a pending booking. Trek, dates and unit price are taken from the batch.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        batchID  path      int                true  "Batch ID"
// @Param        request  body      CreateBookingBody  true  "Booking details"
// @Success      201      {object}  CreateBookingResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      503      {object}  api.RetryableErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /batches/{batchID}/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	batchID, err := strconv.Atoi(c.Param("batchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid batch ID"})
		return
	}

	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := api.ValidateStruct(body); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	batch, err := h.batches.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		if errors.Is(err, inventory.ErrBatchNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Batch not found"})
			return
		}
		logger.Error("failed to load batch for booking", "batch_id", batchID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create booking"})
		return
	}

	res, err := h.svc.CreateBooking(c.Request.Context(), toCreateRequest(userID, batch, body))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func toCreateRequest(userID int, batch *inventory.Batch, body CreateBookingBody) CreateBookingRequest {
	participants := make([]Participant, 0, len(body.Participants))
	for _, p := range body.Participants {
		participants = append(participants, Participant{
			Name:              p.Name,
			Age:               p.Age,
			Gender:            p.Gender,
			Phone:             p.Phone,
			Email:             p.Email,
			IDProof:           p.IDProof,
			MedicalConditions: p.MedicalConditions,
		})
	}

	addOns := make([]pricing.AddOn, 0, len(body.AddOns))
	for _, a := range body.AddOns {
		addOns = append(addOns, pricing.AddOn{ID: a.ID, Name: a.Name, Price: a.Price, Selected: a.Selected})
	}

	return CreateBookingRequest{
		UserID:           userID,
		TrekID:           batch.TrekID,
		BatchID:          batch.ID,
		ParticipantCount: body.ParticipantCount,
		Participants:     participants,
		SelectedAddOns:   addOns,
		StartDate:        batch.StartDate,
		EndDate:          batch.EndDate,
		UnitPrice:        batch.Price,
		TrekName:         batch.TrekName,
		PersonalInfo:     body.PersonalInfo,
	}
}

// CancelBooking godoc
// @Summary      Cancel booking
// @Description  Cancels an own booking at least 7 days before departure and returns the refund quote.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                true  "Booking ID"
// @Param        request    body      CancelBookingBody  true  "Cancellation reason and terms acceptance"
// @Success      200        {object}  CancelBookingResult
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Failure      500        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid booking ID"})
		return
	}

	var body CancelBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}

	res, err := h.svc.CancelBooking(c.Request.Context(), CancelBookingRequest{
		BookingID:     bookingID,
		UserID:        userID,
		Reason:        body.Reason,
		AcceptedTerms: body.AcceptedTerms,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetBooking godoc
// @Summary      Get booking
// @Description  Returns an own booking with its participants and add-ons.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  BookingDetails
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      500        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid booking ID"})
		return
	}

	details, err := h.svc.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Description  Returns bookings of the authenticated user, newest first.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Booking
// @Failure      500  {object}  api.ErrorResponse
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bookings, err := h.svc.ListUserBookings(c.Request.Context(), userID)
	if err != nil {
		logger.Error("failed to list bookings", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// ListBookingsByBatch godoc
// @Summary      List bookings by batch
// @Description  Returns all bookings of a batch. Admin only.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        batchID  path      int  true  "Batch ID"
// @Success      200      {array}   Booking
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/batches/{batchID}/bookings [get]
func (h *Handler) ListBookingsByBatch(c *gin.Context) {
	batchID, err := strconv.Atoi(c.Param("batchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid batch ID"})
		return
	}

	bookings, err := h.svc.ListBatchBookings(c.Request.Context(), batchID)
	if err != nil {
		logger.Error("failed to list batch bookings", "batch_id", batchID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func respondError(c *gin.Context, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		api.RespondWithValidationErrors(c, []api.ValidationError{{Field: vErr.Field, Tag: "invalid", Message: vErr.Field + " " + vErr.Reason}})
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidReason),
		errors.Is(err, ErrTermsNotAccepted),
		errors.Is(err, ErrCancellationWindowClosed):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
	case errors.Is(err, ErrDuplicatePending),
		errors.Is(err, ErrAlreadyCompleted),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrInsufficientCapacity):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case IsRetryable(err):
		c.JSON(http.StatusServiceUnavailable, api.RetryableErrorResponse{Error: ErrReferenceCollision.Error(), Retryable: true})
	default:
		logger.Error("booking request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to process booking"})
	}
}
