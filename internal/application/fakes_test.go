package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wrenchly/service-booking/internal/domain"
	assignmentDomain "github.com/wrenchly/service-booking/internal/domain/assignment"
	bookingDomain "github.com/wrenchly/service-booking/internal/domain/booking"
	extensionDomain "github.com/wrenchly/service-booking/internal/domain/extension"
	vehicleDomain "github.com/wrenchly/service-booking/internal/domain/vehicle"
	"github.com/wrenchly/service-booking/internal/kafka"
)

// --- booking repository ---

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	seq      int64
	updErr   error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	// Detached copy, like a row scan: mutations only land via Save/Update.
	c := *bk
	return &c, nil
}

func (r *fakeBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.BookingNumber() == number {
			c := *bk
			return &c, nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

func (r *fakeBookingRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.CustomerID() == customerID {
			out = append(out, bk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingNumber() < out[j].BookingNumber() })
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		out = append(out, bk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingNumber() < out[j].BookingNumber() })
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) NextBookingNumber(_ context.Context, at time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	month := time.Date(at.UTC().Year(), at.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	return bookingDomain.FormatBookingNumber(month, r.seq), nil
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updErr != nil {
		return r.updErr
	}
	if _, ok := r.bookings[bk.ID()]; !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	r.bookings[bk.ID()] = bk
	return nil
}

// --- vehicle repository ---

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*vehicleDomain.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[uuid.UUID]*vehicleDomain.Vehicle)}
}

func (r *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, domain.NewNotFoundError("Vehicle", id.String())
	}
	return v, nil
}

func (r *fakeVehicleRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID) ([]*vehicleDomain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*vehicleDomain.Vehicle
	for _, v := range r.vehicles {
		if v.CustomerID() == customerID && v.IsActive() {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVehicleRepo) Save(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles[v.ID()] = v
	return nil
}

func (r *fakeVehicleRepo) Update(_ context.Context, v *vehicleDomain.Vehicle) error {
	return r.Save(context.Background(), v)
}

func (r *fakeVehicleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.vehicles, id)
	return nil
}

// --- assignment repository ---

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*assignmentDomain.Assignment
	saveErr     error
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[uuid.UUID]*assignmentDomain.Assignment)}
}

func (r *fakeAssignmentRepo) FindByID(_ context.Context, id uuid.UUID) (*assignmentDomain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, domain.NewNotFoundError("Assignment", id.String())
	}
	return a, nil
}

func (r *fakeAssignmentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*assignmentDomain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*assignmentDomain.Assignment
	for _, a := range r.assignments {
		if a.BookingID() == bookingID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt().Before(out[j].ScheduledAt()) })
	return out, nil
}

func (r *fakeAssignmentRepo) FindOpenByJockeyID(_ context.Context, jockeyID uuid.UUID) ([]*assignmentDomain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*assignmentDomain.Assignment
	for _, a := range r.assignments {
		open := a.Status() == assignmentDomain.StatusPending || a.Status() == assignmentDomain.StatusAccepted
		if open && (a.JockeyID() == nil || *a.JockeyID() == jockeyID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) Save(_ context.Context, a *assignmentDomain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.assignments[a.ID()] = a
	return nil
}

func (r *fakeAssignmentRepo) Update(_ context.Context, a *assignmentDomain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[a.ID()]; !ok {
		return domain.NewNotFoundError("Assignment", a.ID().String())
	}
	r.assignments[a.ID()] = a
	return nil
}

func (r *fakeAssignmentRepo) byLeg(bookingID uuid.UUID, leg assignmentDomain.Leg) *assignmentDomain.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.BookingID() == bookingID && a.Leg() == leg {
			return a
		}
	}
	return nil
}

// --- extension repository ---

type fakeExtensionRepo struct {
	mu         sync.Mutex
	extensions map[uuid.UUID]*extensionDomain.Extension
}

func newFakeExtensionRepo() *fakeExtensionRepo {
	return &fakeExtensionRepo{extensions: make(map[uuid.UUID]*extensionDomain.Extension)}
}

func (r *fakeExtensionRepo) FindByID(_ context.Context, id uuid.UUID) (*extensionDomain.Extension, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ext, ok := r.extensions[id]
	if !ok {
		return nil, domain.NewNotFoundError("Extension", id.String())
	}
	return ext, nil
}

func (r *fakeExtensionRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*extensionDomain.Extension, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*extensionDomain.Extension
	for _, ext := range r.extensions {
		if ext.BookingID() == bookingID {
			out = append(out, ext)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

func (r *fakeExtensionRepo) FindApprovedWithAuthorization(_ context.Context, bookingID uuid.UUID) ([]*extensionDomain.Extension, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*extensionDomain.Extension
	for _, ext := range r.extensions {
		if ext.BookingID() == bookingID && ext.HasLiveAuthorization() {
			out = append(out, ext)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

func (r *fakeExtensionRepo) Save(_ context.Context, ext *extensionDomain.Extension) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions[ext.ID()] = ext
	return nil
}

func (r *fakeExtensionRepo) Update(_ context.Context, ext *extensionDomain.Extension) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.extensions[ext.ID()]; !ok {
		return domain.NewNotFoundError("Extension", ext.ID().String())
	}
	r.extensions[ext.ID()] = ext
	return nil
}

// --- messaging, transactions, sweeping ---

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	topic string
	event kafka.CloudEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, event: event})
	return nil
}

func (p *fakePublisher) byType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeTx runs the unit of work directly; the in-memory repositories have no
// transaction semantics to enlist.
type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeSweeper struct {
	mu    sync.Mutex
	swept []uuid.UUID
	err   error
}

func (s *fakeSweeper) SweepAutoCapture(_ context.Context, bookingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swept = append(s.swept, bookingID)
	return s.err
}

var errTransient = fmt.Errorf("connection reset")
