package booking_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trekbook/internal/auth"
	"trekbook/internal/booking"
	"trekbook/internal/inventory"
	"trekbook/internal/store/memory"
)

const handlerSecret = "handler-test-secret"

type handlerFixture struct {
	router *gin.Engine
	store  *memory.Store
	svc    *booking.Service
	batch  inventory.Batch
}

func newHandlerFixture(t *testing.T, available, daysAhead int, opts ...booking.Option) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Now().UTC()
	store := memory.New()
	batch := store.AddBatch(inventory.Batch{
		TrekID:         3,
		TrekName:       "Hampta Pass",
		StartDate:      now.AddDate(0, 0, daysAhead),
		EndDate:        now.AddDate(0, 0, daysAhead+5),
		Price:          decimal.NewFromInt(500),
		AvailableSlots: available,
	})

	svc := booking.NewService(store, store, nil, nil, opts...)
	t.Cleanup(svc.Wait)
	h := booking.NewHandler(svc, store)

	router := gin.New()
	protected := router.Group("/", auth.AuthMiddleware(handlerSecret))
	protected.POST("/batches/:batchID/bookings", h.CreateBooking)
	protected.POST("/bookings/:bookingID/cancel", h.CancelBooking)
	protected.GET("/bookings", h.ListMyBookings)
	protected.GET("/bookings/:bookingID", h.GetBooking)

	admin := router.Group("/admin", auth.AuthMiddleware(handlerSecret), auth.RequireRole(auth.RoleAdmin))
	admin.GET("/batches/:batchID/bookings", h.ListBookingsByBatch)

	return &handlerFixture{router: router, store: store, svc: svc, batch: batch}
}

func (f *handlerFixture) do(t *testing.T, method, path string, userID int, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	token, err := auth.GenerateAccessToken(userID, "asha@example.com", role, handlerSecret)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func createBody(participants int) map[string]interface{} {
	people := make([]map[string]interface{}, participants)
	for i := range people {
		people[i] = map[string]interface{}{"name": fmt.Sprintf("Trekker %d", i+1), "age": 28}
	}
	return map[string]interface{}{
		"participant_count": participants,
		"participants":      people,
		"addons": []map[string]interface{}{
			{"id": 7, "name": "Porter", "price": "100", "selected": true},
		},
		"personal_info": map[string]interface{}{
			"name":  "Asha Rao",
			"email": "asha@example.com",
			"phone": "+91 98450 00000",
		},
	}
}

func TestCreateBookingHandler_Success(t *testing.T) {
	f := newHandlerFixture(t, 10, 40)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/batches/%d/bookings", f.batch.ID), 1, auth.RoleCustomer, createBody(3))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res booking.CreateBookingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotZero(t, res.BookingID)
	assert.Equal(t, "1890.00", res.PriceBreakdown.TotalAmount.StringFixed(2))

	stored, ok := f.store.Booking(res.BookingID)
	require.True(t, ok)
	assert.Equal(t, f.batch.TrekID, stored.TrekID)
	assert.Equal(t, "Hampta Pass", stored.TrekName)
}

func TestCreateBookingHandler_Errors(t *testing.T) {
	f := newHandlerFixture(t, 2, 40)
	path := fmt.Sprintf("/batches/%d/bookings", f.batch.ID)

	t.Run("validation", func(t *testing.T) {
		body := createBody(1)
		body["personal_info"] = map[string]interface{}{"name": "Asha", "email": "not-an-email"}

		w := f.do(t, http.MethodPost, path, 1, auth.RoleCustomer, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "validation failed")
	})

	t.Run("count mismatch", func(t *testing.T) {
		body := createBody(1)
		body["participant_count"] = 2

		w := f.do(t, http.MethodPost, path, 1, auth.RoleCustomer, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown batch", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/batches/999/bookings", 1, auth.RoleCustomer, createBody(1))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("capacity", func(t *testing.T) {
		w := f.do(t, http.MethodPost, path, 1, auth.RoleCustomer, createBody(3))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), booking.ErrInsufficientCapacity.Error())
	})

	t.Run("duplicate", func(t *testing.T) {
		w := f.do(t, http.MethodPost, path, 2, auth.RoleCustomer, createBody(1))
		require.Equal(t, http.StatusCreated, w.Code)

		w = f.do(t, http.MethodPost, path, 2, auth.RoleCustomer, createBody(1))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), booking.ErrDuplicatePending.Error())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCreateBookingHandler_ReferenceCollisionIsRetryable(t *testing.T) {
	f := newHandlerFixture(t, 10, 40, booking.WithReferenceFunc(func(int, int, time.Time) string { return "SAME" }))
	path := fmt.Sprintf("/batches/%d/bookings", f.batch.ID)

	w := f.do(t, http.MethodPost, path, 1, auth.RoleCustomer, createBody(1))
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, path, 2, auth.RoleCustomer, createBody(1))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"could not allocate a unique booking reference","retryable":true}`, w.Body.String())
}

func TestCancelBookingHandler(t *testing.T) {
	f := newHandlerFixture(t, 10, 40)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/batches/%d/bookings", f.batch.ID), 1, auth.RoleCustomer, createBody(2))
	require.Equal(t, http.StatusCreated, w.Code)
	var created booking.CreateBookingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	cancelPath := fmt.Sprintf("/bookings/%d/cancel", created.BookingID)

	w = f.do(t, http.MethodPost, cancelPath, 1, auth.RoleCustomer, map[string]interface{}{"reason": "", "accepted_terms": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, cancelPath, 1, auth.RoleCustomer, map[string]interface{}{"reason": "injury", "accepted_terms": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, cancelPath, 2, auth.RoleCustomer, map[string]interface{}{"reason": "injury", "accepted_terms": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, cancelPath, 1, auth.RoleCustomer, map[string]interface{}{"reason": "injury", "accepted_terms": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res booking.CancelBookingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, int64(100), res.RefundPercentage)
	assert.True(t, res.CancellationFee.IsZero())

	w = f.do(t, http.MethodPost, cancelPath, 1, auth.RoleCustomer, map[string]interface{}{"reason": "injury", "accepted_terms": true})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelBookingHandler_WindowClosed(t *testing.T) {
	f := newHandlerFixture(t, 10, 3)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/batches/%d/bookings", f.batch.ID), 1, auth.RoleCustomer, createBody(1))
	require.Equal(t, http.StatusCreated, w.Code)
	var created booking.CreateBookingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = f.do(t, http.MethodPost, fmt.Sprintf("/bookings/%d/cancel", created.BookingID), 1, auth.RoleCustomer,
		map[string]interface{}{"reason": "injury", "accepted_terms": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "within 7 days")
}

func TestReadHandlers(t *testing.T) {
	f := newHandlerFixture(t, 10, 40)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/batches/%d/bookings", f.batch.ID), 1, auth.RoleCustomer, createBody(2))
	require.Equal(t, http.StatusCreated, w.Code)
	var created booking.CreateBookingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = f.do(t, http.MethodGet, fmt.Sprintf("/bookings/%d", created.BookingID), 1, auth.RoleCustomer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var details booking.BookingDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	assert.Len(t, details.ParticipantList, 2)
	assert.Len(t, details.AddOns, 1)

	w = f.do(t, http.MethodGet, fmt.Sprintf("/bookings/%d", created.BookingID), 2, auth.RoleCustomer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/bookings/abc", 1, auth.RoleCustomer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/bookings", 1, auth.RoleCustomer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []booking.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	adminPath := fmt.Sprintf("/admin/batches/%d/bookings", f.batch.ID)
	w = f.do(t, http.MethodGet, adminPath, 1, auth.RoleCustomer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, adminPath, 99, auth.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var byBatch []booking.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byBatch))
	assert.Len(t, byBatch, 1)
}
