package booking

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"speakbook/internal/checkout"
	"speakbook/internal/invoice"
	"speakbook/internal/logger"
	"speakbook/internal/payment"
	"speakbook/internal/provider"
	"speakbook/internal/slot"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// memStore keeps committed state in memory. Row locks are per-id mutexes
// held until the owning transaction finishes, like SELECT ... FOR UPDATE.
type memStore struct {
	mu           sync.Mutex
	slots        map[int]slot.SlotWithProvider
	bookings     []*Booking
	invoices     map[int]Invoice
	contacts     map[int]Contact
	slotLocks    map[int]*sync.Mutex
	bookingLocks map[uuid.UUID]*sync.Mutex
	nextID       int
}

func newMemStore() *memStore {
	return &memStore{
		slots:        map[int]slot.SlotWithProvider{},
		invoices:     map[int]Invoice{},
		contacts:     map[int]Contact{},
		slotLocks:    map[int]*sync.Mutex{},
		bookingLocks: map[uuid.UUID]*sync.Mutex{},
	}
}

func (m *memStore) addSlot(s slot.SlotWithProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[s.ID] = s
}

func (m *memStore) slotLock(id int) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.slotLocks[id]
	if !ok {
		l = &sync.Mutex{}
		m.slotLocks[id] = l
	}
	return l
}

func (m *memStore) bookingLock(id uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.bookingLocks[id]
	if !ok {
		l = &sync.Mutex{}
		m.bookingLocks[id] = l
	}
	return l
}

func (m *memStore) slotState(id int) slot.SlotWithProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id]
}

func (m *memStore) liveBookings(slotID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.SlotID == slotID && !b.IsCancelled {
			n++
		}
	}
	return n
}

// hasBookingLocked reports whether any committed booking references the slot.
// Callers hold m.mu.
func (m *memStore) hasBookingLocked(slotID int) bool {
	for _, b := range m.bookings {
		if b.SlotID == slotID {
			return true
		}
	}
	return false
}

func (m *memStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *memStore) find(id uuid.UUID) *Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.BookingID == id {
			cp := *b
			return &cp
		}
	}
	return nil
}

func (m *memStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memTx{store: m, slotBooked: map[int]bool{}, invoices: map[int]Invoice{}}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *memStore) details(b *Booking) BookingWithDetails {
	s := m.slots[b.SlotID]
	return BookingWithDetails{
		Booking:      *b,
		ClientName:   m.contacts[b.ClientID].Name,
		ProviderName: s.ProviderName,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
	}
}

func (m *memStore) GetByBookingID(_ context.Context, id uuid.UUID) (*BookingWithDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.BookingID == id {
			d := m.details(b)
			return &d, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (m *memStore) list(keep func(*Booking) bool) []BookingWithDetails {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []BookingWithDetails{}
	for i := len(m.bookings) - 1; i >= 0; i-- {
		if keep(m.bookings[i]) {
			out = append(out, m.details(m.bookings[i]))
		}
	}
	return out
}

func (m *memStore) ListByClient(_ context.Context, clientID int) ([]BookingWithDetails, error) {
	return m.list(func(b *Booking) bool { return b.ClientID == clientID }), nil
}

func (m *memStore) ListLiveByProvider(_ context.Context, providerID int) ([]BookingWithDetails, error) {
	out := m.list(func(b *Booking) bool { return b.ProviderID == providerID && !b.IsCancelled })
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) ListAll(_ context.Context) ([]BookingWithDetails, error) {
	return m.list(func(*Booking) bool { return true }), nil
}

func (m *memStore) GetInvoice(_ context.Context, id uuid.UUID, clientID int) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.BookingID == id && b.ClientID == clientID {
			if inv, ok := m.invoices[b.ID]; ok {
				return &inv, nil
			}
		}
	}
	return nil, ErrBookingNotFound
}

func (m *memStore) GetContact(_ context.Context, clientID int) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[clientID]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memStore) StatsByDay(context.Context, time.Time, time.Time) ([]StatsByDay, error) {
	return []StatsByDay{}, nil
}

func (m *memStore) StatsByProvider(context.Context, time.Time, time.Time) ([]StatsByProvider, error) {
	return []StatsByProvider{}, nil
}

type memTx struct {
	store      *memStore
	held       []*sync.Mutex
	slotBooked map[int]bool
	created    []*Booking
	invoices   map[int]Invoice
	cancelled  []int
}

func (t *memTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
}

func (t *memTx) commit() {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, booked := range t.slotBooked {
		s := m.slots[id]
		s.IsBooked = booked
		m.slots[id] = s
	}
	m.bookings = append(m.bookings, t.created...)
	for id, inv := range t.invoices {
		m.invoices[id] = inv
	}
	for _, id := range t.cancelled {
		for _, b := range m.bookings {
			if b.ID == id {
				b.IsCancelled = true
				b.IsRefunded = true
			}
		}
	}
}

func (t *memTx) LockSlot(_ context.Context, slotID int) (*slot.Slot, error) {
	l := t.store.slotLock(slotID)
	l.Lock()
	t.held = append(t.held, l)

	t.store.mu.Lock()
	s, ok := t.store.slots[slotID]
	s.HasBooking = t.store.hasBookingLocked(slotID)
	t.store.mu.Unlock()
	if !ok {
		return nil, ErrSlotNotFound
	}
	if booked, staged := t.slotBooked[slotID]; staged {
		s.IsBooked = booked
	}
	out := s.Slot
	return &out, nil
}

func (t *memTx) SetSlotBooked(_ context.Context, slotID int, booked bool) error {
	t.slotBooked[slotID] = booked
	return nil
}

func (t *memTx) CreateBooking(_ context.Context, b *Booking) error {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookings {
		if existing.SlotID == b.SlotID {
			return ErrIntegrityViolation
		}
		if existing.PaymentGateway == b.PaymentGateway && existing.PaymentID == b.PaymentID {
			return ErrIntegrityViolation
		}
	}
	m.nextID++
	b.ID = m.nextID
	b.CreatedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t.created = append(t.created, b)
	return nil
}

func (t *memTx) AttachInvoice(_ context.Context, b *Booking, fileName string, content []byte) error {
	t.invoices[b.ID] = Invoice{FileName: fileName, Content: content}
	b.InvoicePath = &fileName
	return nil
}

func (t *memTx) LockClientBooking(_ context.Context, id uuid.UUID, clientID int) (*Booking, error) {
	if t.store.find(id) == nil {
		return nil, ErrBookingNotFound
	}
	l := t.store.bookingLock(id)
	l.Lock()
	t.held = append(t.held, l)

	b := t.store.find(id)
	if b.ClientID != clientID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (t *memTx) MarkCancelled(_ context.Context, id int) error {
	t.cancelled = append(t.cancelled, id)
	return nil
}

// memSlots serves slot reads from memStore.
type memSlots struct {
	store *memStore
}

func (s memSlots) GetByID(_ context.Context, id int) (*slot.SlotWithProvider, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	sl, ok := s.store.slots[id]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	sl.HasBooking = s.store.hasBookingLocked(id)
	return &sl, nil
}

func (s memSlots) ListByProvider(_ context.Context, providerID int, from time.Time, onlyOpen bool) ([]slot.Slot, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := []slot.Slot{}
	for _, sl := range s.store.slots {
		sl.HasBooking = s.store.hasBookingLocked(sl.ID)
		if sl.ProviderID != providerID || sl.StartTime.Before(from) || (onlyOpen && !sl.Open()) {
			continue
		}
		out = append(out, sl.Slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s memSlots) EnsureSlots(context.Context, int, []time.Time, time.Duration) (int, error) {
	return 0, nil
}

type memCheckouts struct {
	mu       sync.Mutex
	pending  map[int]checkout.Pending
	consumed map[string]string
}

func newMemCheckouts() *memCheckouts {
	return &memCheckouts{pending: map[int]checkout.Pending{}, consumed: map[string]string{}}
}

func (c *memCheckouts) Save(_ context.Context, p checkout.Pending) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[p.ClientID] = p
	return nil
}

func (c *memCheckouts) Get(_ context.Context, clientID int) (*checkout.Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[clientID]
	if !ok {
		return nil, checkout.ErrNoPendingCheckout
	}
	return &p, nil
}

func (c *memCheckouts) MarkConsumed(_ context.Context, orderID, bookingID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumed[orderID] = bookingID
	return nil
}

func (c *memCheckouts) ConsumedBy(_ context.Context, orderID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consumed[orderID], nil
}

type refundCall struct {
	PaymentID string
	Amount    int64
}

// fakeGateway accepts the signature "valid" and numbers orders sequentially.
type fakeGateway struct {
	mu        sync.Mutex
	orders    int
	orderErr  error
	refundErr error
	refunds   []refundCall
}

func (g *fakeGateway) Name() string      { return "razorpay" }
func (g *fakeGateway) PublicKey() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*payment.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	g.orders++
	return &payment.Order{ID: "order_" + receipt, Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (g *fakeGateway) VerifySignature(_ context.Context, _, _, signature string) error {
	if signature != "valid" {
		return payment.ErrSignatureInvalid
	}
	return nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentID string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, refundCall{PaymentID: paymentID, Amount: amount})
	return nil
}

func (g *fakeGateway) refundCalls() []refundCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]refundCall(nil), g.refunds...)
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) Render(d invoice.Data) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF- " + d.BookingID), nil
}

func (stubRenderer) ContentType() string { return "application/pdf" }

type recordingNotifier struct {
	mu            sync.Mutex
	confirmations []string
	cancellations []string
	err           error
}

func (n *recordingNotifier) SendBookingConfirmation(_ context.Context, to, _, _, bookingID string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations = append(n.confirmations, to+":"+bookingID)
	return n.err
}

func (n *recordingNotifier) SendCancellation(_ context.Context, to, _, _, bookingID string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancellations = append(n.cancellations, to+":"+bookingID)
	return n.err
}

type recordingSMS struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSMS) Send(_ context.Context, to, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to)
	return errors.New("sms provider down")
}

type MockProviderService struct {
	mock.Mock
}

func (m *MockProviderService) ListApproved(ctx context.Context) ([]provider.Provider, error) {
	args := m.Called(ctx)
	return args.Get(0).([]provider.Provider), args.Error(1)
}

func (m *MockProviderService) ListApprovedWithSlots(ctx context.Context) ([]provider.ProviderWithSlots, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.ProviderWithSlots), args.Error(1)
}

func (m *MockProviderService) OpenSlots(ctx context.Context, providerID int) ([]slot.Slot, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).([]slot.Slot), args.Error(1)
}

func (m *MockProviderService) ListForAdmin(ctx context.Context, approved *bool) ([]provider.Provider, error) {
	args := m.Called(ctx, approved)
	return args.Get(0).([]provider.Provider), args.Error(1)
}

func (m *MockProviderService) Approve(ctx context.Context, id int) (*provider.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Provider), args.Error(1)
}

func (m *MockProviderService) ForUser(ctx context.Context, userID int) (*provider.Provider, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Provider), args.Error(1)
}
