package application

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	reservationDomain "github.com/roomdesk/service-reservation/internal/domain/reservation"
	roomDomain "github.com/roomdesk/service-reservation/internal/domain/room"
	userDomain "github.com/roomdesk/service-reservation/internal/domain/user"
	"github.com/roomdesk/service-reservation/pkg/domain"
	"github.com/roomdesk/service-reservation/pkg/kafka"
)

// memDB holds value copies of aggregates so callers never share state with
// the store, the way rows in a real database behave.
type memDB struct {
	mu           sync.Mutex
	rooms        map[uuid.UUID]roomDomain.Room
	users        map[uuid.UUID]userDomain.User
	reservations map[uuid.UUID]reservationDomain.Reservation
	order        []uuid.UUID // reservation insertion order

	// txMu serializes transactions, standing in for row locks.
	txMu sync.Mutex
}

func newMemDB() *memDB {
	return &memDB{
		rooms:        make(map[uuid.UUID]roomDomain.Room),
		users:        make(map[uuid.UUID]userDomain.User),
		reservations: make(map[uuid.UUID]reservationDomain.Reservation),
	}
}

type memSnapshot struct {
	rooms        map[uuid.UUID]roomDomain.Room
	users        map[uuid.UUID]userDomain.User
	reservations map[uuid.UUID]reservationDomain.Reservation
	order        []uuid.UUID
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := memSnapshot{
		rooms:        make(map[uuid.UUID]roomDomain.Room, len(db.rooms)),
		users:        make(map[uuid.UUID]userDomain.User, len(db.users)),
		reservations: make(map[uuid.UUID]reservationDomain.Reservation, len(db.reservations)),
		order:        append([]uuid.UUID(nil), db.order...),
	}
	for k, v := range db.rooms {
		s.rooms[k] = v
	}
	for k, v := range db.users {
		s.users[k] = v
	}
	for k, v := range db.reservations {
		s.reservations[k] = v
	}
	return s
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.rooms = s.rooms
	db.users = s.users
	db.reservations = s.reservations
	db.order = s.order
}

// --- Transactor ---

type memTxKey struct{}

type memTransactor struct {
	db *memDB
}

func (t *memTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

// --- Rooms ---

type memRoomRepo struct {
	db *memDB
}

func (r *memRoomRepo) FindByID(_ context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rm, ok := r.db.rooms[id]
	if !ok {
		return nil, domain.NewNotFoundError("Room", id.String())
	}
	return &rm, nil
}

func (r *memRoomRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	return r.FindByID(ctx, id)
}

func (r *memRoomRepo) SearchByName(_ context.Context, search string, page, limit int) ([]*roomDomain.Room, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var matched []*roomDomain.Room
	for _, rm := range r.db.rooms {
		rm := rm
		if strings.Contains(strings.ToLower(rm.Name()), strings.ToLower(search)) {
			matched = append(matched, &rm)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt().After(matched[j].CreatedAt()) })
	return pageOf(matched, page, limit), int64(len(matched)), nil
}

func (r *memRoomRepo) Save(_ context.Context, rm *roomDomain.Room) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.rooms[rm.ID()] = *rm
	return nil
}

func (r *memRoomRepo) Update(_ context.Context, rm *roomDomain.Room) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.rooms[rm.ID()]
	if !ok || stored.Version() != rm.Version()-1 {
		return domain.NewConflictError("room was modified by another transaction")
	}
	r.db.rooms[rm.ID()] = *rm
	return nil
}

func (r *memRoomRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.rooms[id]; !ok {
		return domain.NewNotFoundError("Room", id.String())
	}
	delete(r.db.rooms, id)
	return nil
}

// --- Users ---

type memUserRepo struct {
	db *memDB
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return &u, nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*userDomain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username() == username {
			u := u
			return &u, nil
		}
	}
	return nil, domain.NewNotFoundError("User", "")
}

func (r *memUserRepo) SearchByName(_ context.Context, search string, page, limit int) ([]*userDomain.User, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	q := strings.ToLower(search)
	var matched []*userDomain.User
	for _, u := range r.db.users {
		u := u
		if strings.Contains(strings.ToLower(u.Name()), q) ||
			strings.Contains(strings.ToLower(u.LastName()), q) ||
			strings.Contains(strings.ToLower(u.Username()), q) {
			matched = append(matched, &u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt().After(matched[j].CreatedAt()) })
	return pageOf(matched, page, limit), int64(len(matched)), nil
}

func (r *memUserRepo) Save(_ context.Context, u *userDomain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.users[u.ID()] = *u
	return nil
}

func (r *memUserRepo) Update(_ context.Context, u *userDomain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.users[u.ID()]
	if !ok || stored.Version() != u.Version()-1 {
		return domain.NewConflictError("user was modified by another transaction")
	}
	r.db.users[u.ID()] = *u
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return domain.NewNotFoundError("User", id.String())
	}
	delete(r.db.users, id)
	return nil
}

// --- Reservations ---

type memReservationRepo struct {
	db      *memDB
	saveErr error
}

func (r *memReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*reservationDomain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.reservations[id]
	if !ok {
		return nil, domain.NewNotFoundError("Reservation", id.String())
	}
	return &res, nil
}

func (r *memReservationRepo) ListAll(ctx context.Context, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	return r.list(func(*reservationDomain.Reservation) bool { return true }, page, limit)
}

func (r *memReservationRepo) ListByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	return r.list(func(res *reservationDomain.Reservation) bool { return res.UserID() == userID }, page, limit)
}

// list returns newest first; insertion order breaks created_at ties.
func (r *memReservationRepo) list(keep func(*reservationDomain.Reservation) bool, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var matched []*reservationDomain.Reservation
	for i := len(r.db.order) - 1; i >= 0; i-- {
		res, ok := r.db.reservations[r.db.order[i]]
		if ok && keep(&res) {
			matched = append(matched, &res)
		}
	}
	return pageOf(matched, page, limit), int64(len(matched)), nil
}

func (r *memReservationRepo) Save(_ context.Context, res *reservationDomain.Reservation) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.reservations[res.ID()] = *res
	r.db.order = append(r.db.order, res.ID())
	return nil
}

func (r *memReservationRepo) Update(_ context.Context, res *reservationDomain.Reservation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.reservations[res.ID()]
	if !ok || stored.Version() != res.Version()-1 {
		return domain.NewConflictError("reservation was modified by another transaction")
	}
	r.db.reservations[res.ID()] = *res
	return nil
}

func (r *memReservationRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.reservations[id]; !ok {
		return domain.NewNotFoundError("Reservation", id.String())
	}
	delete(r.db.reservations, id)
	return nil
}

func (r *memReservationRepo) ExistsByRoomID(_ context.Context, roomID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, res := range r.db.reservations {
		if res.RoomID() == roomID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memReservationRepo) ExistsByUserID(_ context.Context, userID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, res := range r.db.reservations {
		if res.UserID() == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memReservationRepo) CountByStatus(context.Context) (map[reservationDomain.Status]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	counts := make(map[reservationDomain.Status]int64)
	for _, res := range r.db.reservations {
		counts[res.Status()]++
	}
	return counts, nil
}

func pageOf[T any](items []T, page, limit int) []T {
	start := domain.Offset(page, limit)
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}
