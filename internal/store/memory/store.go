// Package memory is an in-process implementation of the booking and inventory
// stores. Transactions are serialized and work on a copy of the committed
// state, which replaces it only when the unit of work succeeds.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"trekbook/internal/booking"
	"trekbook/internal/inventory"
)

// Fault points accepted by InjectFault.
const (
	OpFindConflicting = "find_conflicting"
	OpReserve         = "reserve"
	OpRelease         = "release"
	OpInsert          = "insert"
	OpGetForUpdate    = "get_for_update"
	OpMarkCancelled   = "mark_cancelled"
	OpCommit          = "commit"
)

type state struct {
	batches      map[int]inventory.Batch
	bookings     map[int]booking.Booking
	participants map[int][]booking.Participant
	addOns       map[int][]booking.AddOn

	nextBatchID       int
	nextBookingID     int
	nextParticipantID int
	nextAddOnID       int
}

func newState() *state {
	return &state{
		batches:           map[int]inventory.Batch{},
		bookings:          map[int]booking.Booking{},
		participants:      map[int][]booking.Participant{},
		addOns:            map[int][]booking.AddOn{},
		nextBatchID:       1,
		nextBookingID:     1,
		nextParticipantID: 1,
		nextAddOnID:       1,
	}
}

func (s *state) clone() *state {
	c := *s
	c.batches = make(map[int]inventory.Batch, len(s.batches))
	for k, v := range s.batches {
		c.batches[k] = v
	}
	c.bookings = make(map[int]booking.Booking, len(s.bookings))
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	c.participants = make(map[int][]booking.Participant, len(s.participants))
	for k, v := range s.participants {
		c.participants[k] = append([]booking.Participant(nil), v...)
	}
	c.addOns = make(map[int][]booking.AddOn, len(s.addOns))
	for k, v := range s.addOns {
		c.addOns[k] = append([]booking.AddOn(nil), v...)
	}
	return &c
}

type Store struct {
	mu     sync.Mutex
	state  *state
	faults map[string]error
	now    func() time.Time
}

func New() *Store {
	return &Store{
		state:  newState(),
		faults: map[string]error{},
		now:    time.Now,
	}
}

// InjectFault makes every later call at op fail with err. A nil err clears it.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	return s.faults[op]
}

// AddBatch seeds a batch and returns it with its id assigned.
func (s *Store) AddBatch(b inventory.Batch) inventory.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == 0 {
		b.ID = s.state.nextBatchID
	}
	if b.ID >= s.state.nextBatchID {
		s.state.nextBatchID = b.ID + 1
	}
	if b.Status == "" {
		b.Status = inventory.BatchActive
	}
	s.state.batches[b.ID] = b
	return b
}

// Batch returns the committed state of a batch.
func (s *Store) Batch(id int) (inventory.Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.batches[id]
	return b, ok
}

// Booking returns the committed state of a booking.
func (s *Store) Booking(id int) (booking.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.bookings[id]
	return b, ok
}

// SetBookingStatus moves a booking to status outside the engine, the way the
// payment and trek completion flows do.
func (s *Store) SetBookingStatus(id int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.bookings[id]
	if !ok {
		return booking.ErrNotFound
	}
	b.Status = status
	s.state.bookings[id] = b
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow booking.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := &unitOfWork{store: s, state: s.state.clone()}
	if err := fn(ctx, work); err != nil {
		return err
	}

	if err := s.fault(OpCommit); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.state = work.state
	return nil
}

type unitOfWork struct {
	store *Store
	state *state
}

func (u *unitOfWork) Inventory() inventory.Ledger { return ledger{u} }

func (u *unitOfWork) Records() booking.RecordStore { return records{u} }

type ledger struct{ *unitOfWork }

func (l ledger) Reserve(_ context.Context, batchID, count int) error {
	if err := l.store.fault(OpReserve); err != nil {
		return err
	}
	if count <= 0 {
		return fmt.Errorf("reserve %d slots: count must be positive", count)
	}

	b, ok := l.state.batches[batchID]
	if !ok || b.Status != inventory.BatchActive || b.AvailableSlots < count {
		return inventory.ErrInsufficientCapacity
	}

	b.AvailableSlots -= count
	b.BookedSlots += count
	b.UpdatedAt = l.store.now()
	l.state.batches[batchID] = b
	return nil
}

func (l ledger) Release(_ context.Context, batchID, count int) error {
	if err := l.store.fault(OpRelease); err != nil {
		return err
	}

	b, ok := l.state.batches[batchID]
	if !ok {
		return inventory.ErrBatchNotFound
	}

	b.AvailableSlots += count
	b.BookedSlots -= count
	b.UpdatedAt = l.store.now()
	l.state.batches[batchID] = b
	return nil
}

type records struct{ *unitOfWork }

func (r records) FindConflicting(_ context.Context, userID, trekID, batchID int) (*booking.Booking, error) {
	if err := r.store.fault(OpFindConflicting); err != nil {
		return nil, err
	}

	var found *booking.Booking
	for _, b := range r.state.bookings {
		if b.UserID != userID || b.TrekID != trekID || b.BatchID != batchID {
			continue
		}
		if b.Status == booking.StatusCompleted {
			b := b
			return &b, nil
		}
		if b.Open() && found == nil {
			b := b
			found = &b
		}
	}
	return found, nil
}

func (r records) Insert(_ context.Context, b *booking.Booking, participants []booking.Participant, addOns []booking.AddOn) error {
	if err := r.store.fault(OpInsert); err != nil {
		return err
	}

	for _, existing := range r.state.bookings {
		if existing.BookingReference == b.BookingReference {
			return booking.ErrDuplicateReference
		}
		if existing.Open() && b.Open() &&
			existing.UserID == b.UserID && existing.TrekID == b.TrekID && existing.BatchID == b.BatchID {
			return booking.ErrDuplicatePending
		}
	}

	now := r.store.now()
	b.ID = r.state.nextBookingID
	r.state.nextBookingID++
	b.CreatedAt = now
	b.UpdatedAt = now
	r.state.bookings[b.ID] = *b

	for i := range participants {
		participants[i].ID = r.state.nextParticipantID
		participants[i].BookingID = b.ID
		r.state.nextParticipantID++
	}
	r.state.participants[b.ID] = append([]booking.Participant(nil), participants...)

	for i := range addOns {
		addOns[i].ID = r.state.nextAddOnID
		addOns[i].BookingID = b.ID
		r.state.nextAddOnID++
	}
	r.state.addOns[b.ID] = append([]booking.AddOn(nil), addOns...)

	return nil
}

func (r records) GetForUpdate(_ context.Context, bookingID, userID int) (*booking.Booking, error) {
	if err := r.store.fault(OpGetForUpdate); err != nil {
		return nil, err
	}

	b, ok := r.state.bookings[bookingID]
	if !ok || b.UserID != userID {
		return nil, booking.ErrNotFound
	}
	return &b, nil
}

func (r records) MarkCancelled(_ context.Context, bookingID int, reason string, refundAmount, fee decimal.Decimal, at time.Time) error {
	if err := r.store.fault(OpMarkCancelled); err != nil {
		return err
	}

	b, ok := r.state.bookings[bookingID]
	if !ok || !b.Open() {
		return booking.ErrAlreadyCancelled
	}

	b.Status = booking.StatusCancelled
	b.CancellationReason = &reason
	b.RefundAmount = refundAmount
	b.CancellationFee = fee
	b.CancelledAt = &at
	b.UpdatedAt = r.store.now()
	r.state.bookings[bookingID] = b
	return nil
}

func (s *Store) GetByID(_ context.Context, bookingID int) (*booking.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.state.bookings[bookingID]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &b, nil
}

func (s *Store) GetUserBookings(_ context.Context, userID int) ([]booking.Booking, error) {
	return s.filterBookings(func(b booking.Booking) bool { return b.UserID == userID }, true), nil
}

func (s *Store) GetBookingsByBatch(_ context.Context, batchID int) ([]booking.Booking, error) {
	return s.filterBookings(func(b booking.Booking) bool { return b.BatchID == batchID }, false), nil
}

func (s *Store) filterBookings(keep func(booking.Booking) bool, newestFirst bool) []booking.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []booking.Booking{}
	for _, b := range s.state.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) GetParticipants(_ context.Context, bookingID int) ([]booking.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]booking.Participant{}, s.state.participants[bookingID]...), nil
}

func (s *Store) GetAddOns(_ context.Context, bookingID int) ([]booking.AddOn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]booking.AddOn{}, s.state.addOns[bookingID]...), nil
}

func (s *Store) MarkConfirmationSent(_ context.Context, bookingID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.state.bookings[bookingID]
	if !ok {
		return booking.ErrNotFound
	}
	b.ConfirmationSent = true
	s.state.bookings[bookingID] = b
	return nil
}

func (s *Store) GetBatch(_ context.Context, id int) (*inventory.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.state.batches[id]
	if !ok {
		return nil, inventory.ErrBatchNotFound
	}
	return &b, nil
}

func (s *Store) ListBatchesByTrek(_ context.Context, trekID int, onlyFuture bool) ([]inventory.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := []inventory.Batch{}
	for _, b := range s.state.batches {
		if b.TrekID != trekID {
			continue
		}
		if onlyFuture && !b.StartDate.After(now) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

var (
	_ booking.TxManager = (*Store)(nil)
	_ booking.Reader    = (*Store)(nil)
	_ inventory.Reader  = (*Store)(nil)
)

// ErrInjected is a convenience fault for tests.
var ErrInjected = errors.New("injected store fault")
