package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kooko-labs/kooko/internal/cache"
	"github.com/kooko-labs/kooko/internal/config"
	"github.com/kooko-labs/kooko/internal/entity"
	"github.com/kooko-labs/kooko/internal/notifier"
	"github.com/kooko-labs/kooko/internal/queue"
	repo "github.com/kooko-labs/kooko/internal/repository/order"
	"github.com/kooko-labs/kooko/pkg/errorbank"
)

type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*entity.Order

	createErr error
	updateErr error
	stale     bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[int64]*entity.Order)}
}

func (r *fakeRepo) Create(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	order.ID = r.nextID
	clone := *order
	r.orders[order.ID] = &clone
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (r *fakeRepo) ListByCustomer(_ context.Context, customerRef string) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Order
	for id := r.nextID; id >= 1; id-- {
		if order, ok := r.orders[id]; ok && order.CustomerRef == customerRef {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (r *fakeRepo) List(_ context.Context, status *entity.Status) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Order
	for id := r.nextID; id >= 1; id-- {
		order, ok := r.orders[id]
		if !ok {
			continue
		}
		if status != nil && order.Status != *status {
			continue
		}
		out = append(out, *order)
	}
	return out, nil
}

func (r *fakeRepo) ListUnresolved(_ context.Context) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Order
	for id := int64(1); id <= r.nextID; id++ {
		if order, ok := r.orders[id]; ok && order.Status.Unresolved() {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id int64, from, to entity.Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if r.stale {
		return repo.ErrStaleStatus
	}
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return repo.ErrStaleStatus
	}
	order.Status = to
	order.UpdatedAt = updatedAt
	return nil
}

func (r *fakeRepo) CountUnresolved(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, order := range r.orders {
		if order.Status.Unresolved() {
			count++
		}
	}
	return count, nil
}

type recordedEvent struct {
	kind   notifier.EventKind
	id     int64
	status entity.Status
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (n *fakeNotifier) Publish(_ context.Context, kind notifier.EventKind, order *entity.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, recordedEvent{kind: kind, id: order.ID, status: order.Status})
	return nil
}

func (n *fakeNotifier) recorded() []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedEvent(nil), n.events...)
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return value, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func newTestService(r *fakeRepo, n *fakeNotifier, store cache.Store) *Service {
	cfg := config.Config{Queue: config.Queue{ServiceMinutes: 5}}
	return &Service{
		repo:      r,
		allocator: queue.NewAllocator(cfg, r),
		cache:     store,
		cacheTTL:  time.Minute,
		logger:    zap.NewNop(),
		notifier:  n,
	}
}

func kindOf(err error) errorbank.Kind {
	return errorbank.From(err).Kind()
}

func submission(customerRef string) CreateOrderInput {
	return CreateOrderInput{
		CustomerRef: customerRef,
		Variant:     entity.VariantPlain,
		Size:        entity.SizeMedium,
		Quantity:    1,
	}
}

func TestCreateOrderAssignsPositionsAndPrices(t *testing.T) {
	r := newFakeRepo()
	n := &fakeNotifier{}
	svc := newTestService(r, n, nil)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerRef: "cust-1",
		Variant:     entity.VariantPlain,
		Size:        entity.SizeMedium,
		Quantity:    2,
		AddOns:      []string{"sugar"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, first.Status)
	assert.Equal(t, int64(660), first.TotalPrice)
	assert.Equal(t, 1, first.QueuePosition)
	assert.Equal(t, 5, first.EstimatedWaitMinutes)

	second, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerRef: "cust-2",
		Variant:     entity.VariantSpecial,
		Size:        entity.SizeLarge,
		Quantity:    1,
		AddOns:      []string{"groundnut", "dates"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(650), second.TotalPrice)
	assert.Equal(t, 2, second.QueuePosition)
	assert.Equal(t, 10, second.EstimatedWaitMinutes)

	events := n.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, notifier.EventCreated, events[0].kind)
	assert.Equal(t, first.ID, events[0].id)
	assert.Equal(t, notifier.EventCreated, events[1].kind)
	assert.Equal(t, second.ID, events[1].id)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{}, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateOrderInput
	}{
		{"missing customer ref", CreateOrderInput{Variant: entity.VariantPlain, Size: entity.SizeSmall, Quantity: 1}},
		{"zero quantity", CreateOrderInput{CustomerRef: "c", Variant: entity.VariantPlain, Size: entity.SizeSmall, Quantity: 0}},
		{"negative quantity", CreateOrderInput{CustomerRef: "c", Variant: entity.VariantPlain, Size: entity.SizeSmall, Quantity: -1}},
		{"unknown variant", CreateOrderInput{CustomerRef: "c", Variant: "gruel", Size: entity.SizeSmall, Quantity: 1}},
		{"unknown size", CreateOrderInput{CustomerRef: "c", Variant: entity.VariantPlain, Size: "bucket", Quantity: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tc.in)
			require.Error(t, err)
			assert.Equal(t, errorbank.KindBadRequest, kindOf(err))
		})
	}
}

func TestCreateOrderDedupesAddOns(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{}, nil)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerRef: "cust-1",
		Variant:     entity.VariantPlain,
		Size:        entity.SizeMedium,
		Quantity:    1,
		AddOns:      []string{"milk", "", "milk", "sugar"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"milk", "sugar"}, order.AddOns)
	assert.Equal(t, int64(380), order.TotalPrice)
}

func TestCreateOrderPersistFailure(t *testing.T) {
	r := newFakeRepo()
	n := &fakeNotifier{}
	svc := newTestService(r, n, nil)
	ctx := context.Background()

	r.createErr = errors.New("insert failed")
	_, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.Error(t, err)
	assert.Equal(t, errorbank.KindUnavailable, kindOf(err))
	assert.Empty(t, n.recorded())

	r.createErr = nil
	order, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, order.QueuePosition)
}

func TestCreateOrderPublishFailureStillSucceeds(t *testing.T) {
	n := &fakeNotifier{err: errors.New("broker down")}
	svc := newTestService(newFakeRepo(), n, nil)

	order, err := svc.CreateOrder(context.Background(), submission("cust-1"))
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}

func TestResolvedOrdersFreeQueueSlots(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, &fakeNotifier{}, nil)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, submission("cust-2"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, first.ID, entity.StatusCompleted)
	require.NoError(t, err)

	third, err := svc.CreateOrder(ctx, submission("cust-3"))
	require.NoError(t, err)
	assert.Equal(t, 2, third.QueuePosition)

	// The earlier order keeps its frozen projection.
	stored, err := svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.QueuePosition)
	assert.Equal(t, 10, stored.EstimatedWaitMinutes)
}

func TestUpdateStatusWalksTheLifecycle(t *testing.T) {
	r := newFakeRepo()
	n := &fakeNotifier{}
	svc := newTestService(r, n, nil)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)

	for _, next := range []entity.Status{entity.StatusPreparing, entity.StatusReady, entity.StatusCompleted} {
		updated, err := svc.UpdateStatus(ctx, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = svc.UpdateStatus(ctx, order.ID, entity.StatusPending)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindUnprocessableEntity, kindOf(err))

	events := n.recorded()
	require.Len(t, events, 4)
	assert.Equal(t, notifier.EventCreated, events[0].kind)
	for i, status := range []entity.Status{entity.StatusPreparing, entity.StatusReady, entity.StatusCompleted} {
		assert.Equal(t, notifier.EventUpdated, events[i+1].kind)
		assert.Equal(t, status, events[i+1].status)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{}, nil)

	_, err := svc.UpdateStatus(context.Background(), 1, entity.Status("done"))
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, kindOf(err))
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{}, nil)

	_, err := svc.UpdateStatus(context.Background(), 42, entity.StatusPreparing)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, kindOf(err))
}

func TestUpdateStatusReadyToCancelledRejected(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, &fakeNotifier{}, nil)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, entity.StatusReady)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, entity.StatusCancelled)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindUnprocessableEntity, kindOf(err))
}

func TestUpdateStatusLostRaceIsConflict(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, &fakeNotifier{}, nil)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)

	r.stale = true
	_, err = svc.UpdateStatus(ctx, order.ID, entity.StatusPreparing)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindConflict, kindOf(err))
}

func TestCancel(t *testing.T) {
	r := newFakeRepo()
	n := &fakeNotifier{}
	svc := newTestService(r, n, nil)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, order.ID, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Status)

	events := n.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, notifier.EventCancelled, events[1].kind)
}

func TestCancelByNonOwnerForbidden(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, &fakeNotifier{}, nil)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, order.ID, "cust-2")
	require.Error(t, err)
	assert.Equal(t, errorbank.KindForbidden, kindOf(err))
}

func TestCancelWindowClosesAtReady(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, &fakeNotifier{}, nil)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, entity.StatusReady)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, order.ID, "cust-1")
	require.Error(t, err)
	assert.Equal(t, errorbank.KindUnprocessableEntity, kindOf(err))
}

func TestCancelWhilePreparingAllowed(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, &fakeNotifier{}, nil)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, entity.StatusPreparing)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, order.ID, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Status)
}

func TestGetServesCachedCopy(t *testing.T) {
	r := newFakeRepo()
	store := newMemStore()
	svc := newTestService(r, &fakeNotifier{}, store)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)

	// Drop the backing row; the cached copy written at creation still serves.
	r.mu.Lock()
	delete(r.orders, order.ID)
	r.mu.Unlock()

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, order.TotalPrice, got.TotalPrice)
}

func TestGetUnknownOrder(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{}, nil)

	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, kindOf(err))
}

func TestListByCustomer(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, &fakeNotifier{}, nil)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, submission("cust-2"))
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)

	orders, err := svc.ListByCustomer(ctx, "cust-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)

	_, err = svc.ListByCustomer(ctx, "")
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, kindOf(err))
}

func TestListWithStatusFilter(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, &fakeNotifier{}, nil)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, submission("cust-2"))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, first.ID, entity.StatusPreparing)
	require.NoError(t, err)

	preparing := entity.StatusPreparing
	orders, err := svc.List(ctx, &preparing)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, first.ID, orders[0].ID)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bogus := entity.Status("done")
	_, err = svc.List(ctx, &bogus)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, kindOf(err))
}

func TestQueueSnapshot(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, &fakeNotifier{}, nil)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, submission("cust-1"))
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, submission("cust-2"))
	require.NoError(t, err)
	third, err := svc.CreateOrder(ctx, submission("cust-3"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, first.ID, entity.StatusCompleted)
	require.NoError(t, err)

	snap, err := svc.QueueSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Length)
	assert.Equal(t, 10, snap.EstimatedWaitMinutes)
	require.Len(t, snap.Orders, 2)
	assert.Equal(t, second.ID, snap.Orders[0].ID)
	assert.Equal(t, third.ID, snap.Orders[1].ID)
}
