package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"order-dashboard/internal/domain"
	"order-dashboard/internal/infra"
	"order-dashboard/internal/view"
)

func TestDashboardService_LoadAll(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*fixture)
		records    []domain.RawOrder
		fetchErr   error
		wantIDs    []string
		wantBanner string
		wantErr    error
	}{
		{
			name: "replaces list and renumbers newest first",
			records: []domain.RawOrder{
				CreateRawOrder("A", "processing", 10, 30),
				CreateRawOrder("B", "ready", 5, 10),
				CreateRawOrder("C", "completed", 20, 20),
			},
			wantIDs: []string{"B", "C", "A"},
		},
		{
			name: "transport failure keeps previous list and sets banner",
			setup: func(f *fixture) {
				f.store.Replace([]domain.Order{{ID: "OLD", Status: domain.StatusWaiting}})
			},
			fetchErr:   errors.New("connection refused"),
			wantIDs:    []string{"OLD"},
			wantBanner: bannerLoadFailed,
		},
		{
			name: "malformed payload keeps previous list",
			setup: func(f *fixture) {
				f.store.Replace([]domain.Order{{ID: "OLD", Status: domain.StatusWaiting}})
			},
			fetchErr:   infra.ErrMalformedPayload,
			wantIDs:    []string{"OLD"},
			wantBanner: bannerLoadFailed,
			wantErr:    infra.ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			f.api.On("FetchOrders", mock.Anything).Return(tt.records, tt.fetchErr).Once()

			err := f.svc.LoadAll(context.Background())

			if tt.fetchErr != nil {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantIDs, ids(f.store.Snapshot()))
			assert.Equal(t, tt.wantBanner, f.svc.Banner())
			f.api.AssertExpectations(t)
		})
	}
}

func TestDashboardService_LoadAllClearsBanner(t *testing.T) {
	f := newFixture(t)
	f.api.On("FetchOrders", mock.Anything).Return(nil, errors.New("timeout")).Once()
	f.api.On("FetchOrders", mock.Anything).Return(CreateRawOrders(2), nil).Once()

	require.Error(t, f.svc.LoadAll(context.Background()))
	assert.Equal(t, bannerLoadFailed, f.svc.Banner())

	require.NoError(t, f.svc.LoadAll(context.Background()))
	assert.Empty(t, f.svc.Banner())
	assert.Equal(t, 2, f.store.Len())
}

func TestDashboardService_LoadAllWarnsOnDuplicateIDs(t *testing.T) {
	f := newFixture(t)
	f.api.On("FetchOrders", mock.Anything).Return([]domain.RawOrder{
		CreateRawOrder("A", "processing", 10, 5),
		CreateRawOrder("B", "processing", 10, 4),
		CreateRawOrder("A", "ready", 10, 3),
	}, nil)

	require.NoError(t, f.svc.LoadAll(context.Background()))

	assert.Equal(t, 2, f.store.Len())
	assert.Contains(t, f.logs.String(), "duplicate order ids dropped")
	assert.Contains(t, f.logs.String(), "order_ids=[A]")
}

func TestDashboardService_LoadAllIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.api.On("FetchOrders", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return ctx.Err() == nil && hasDeadline
	})).Return(CreateRawOrders(3), nil).Once()

	require.NoError(t, f.svc.LoadAll(ctx))

	assert.Equal(t, 3, f.store.Len())
	f.api.AssertExpectations(t)
}

func TestDashboardService_LoadAllNormalizesRecord(t *testing.T) {
	f := newFixture(t)
	f.api.On("FetchOrders", mock.Anything).Return([]domain.RawOrder{{
		"id":         "ORD-7",
		"status":     "processing",
		"totalPrice": "15.5",
		"items":      "[Burger, Coke]",
	}}, nil)

	require.NoError(t, f.svc.LoadAll(context.Background()))

	o, ok := f.store.Get("ORD-7")
	require.True(t, ok)
	assert.Equal(t, domain.StatusWaiting, o.Status)
	assert.Equal(t, 15.5, o.Total)
	assert.Equal(t, []string{"Burger", "Coke"}, o.Items)
	assert.Equal(t, 1, o.RowNumber)
}

func TestDashboardService_LoadAllRowNumbers(t *testing.T) {
	f := newFixture(t)
	f.api.On("FetchOrders", mock.Anything).Return(CreateRawOrders(23), nil)

	require.NoError(t, f.svc.LoadAll(context.Background()))

	for i, o := range f.store.Snapshot() {
		assert.Equal(t, i+1, o.RowNumber)
	}
}

func TestDashboardService_ApplyCreated(t *testing.T) {
	f := newFixture(t)
	f.store.Replace([]domain.Order{
		{ID: "A", Timestamp: testNow.Add(-10 * time.Minute), Status: domain.StatusWaiting},
	})

	require.NoError(t, f.svc.ApplyCreated(context.Background(), CreateRawOrder("B", "processing", 12, 0)))

	list := f.store.Snapshot()
	assert.Equal(t, []string{"B", "A"}, ids(list))
	assert.Equal(t, 1, list[0].RowNumber)
	assert.Equal(t, 2, list[1].RowNumber)
}

func TestDashboardService_ApplyCreatedDuplicateUpserts(t *testing.T) {
	f := newFixture(t)
	f.store.Replace([]domain.Order{{ID: "A", Status: domain.StatusWaiting, Timestamp: testNow}})

	require.NoError(t, f.svc.ApplyCreated(context.Background(), CreateRawOrder("A", "ready", 9, 0)))

	require.Equal(t, 1, f.store.Len())
	o, _ := f.store.Get("A")
	assert.Equal(t, domain.StatusReady, o.Status)
}

func TestDashboardService_ApplyUpdated(t *testing.T) {
	f := newFixture(t)
	f.store.Replace([]domain.Order{
		{ID: "A", Status: domain.StatusWaiting, Timestamp: testNow},
		{ID: "B", Status: domain.StatusWaiting, Timestamp: testNow.Add(-time.Minute)},
	})

	t.Run("known order is replaced in place", func(t *testing.T) {
		require.NoError(t, f.svc.ApplyUpdated(context.Background(), CreateRawOrder("B", "ready", 3, 1)))

		o, ok := f.store.Get("B")
		require.True(t, ok)
		assert.Equal(t, domain.StatusReady, o.Status)
		assert.Equal(t, 2, f.store.Len())
	})

	t.Run("unknown order is ignored", func(t *testing.T) {
		before := f.store.Snapshot()

		require.NoError(t, f.svc.ApplyUpdated(context.Background(), CreateRawOrder("ZZZ", "ready", 3, 1)))

		assert.Equal(t, len(before), f.store.Len())
		assert.Equal(t, before, f.store.Snapshot())
	})
}

func TestDashboardService_SetSort(t *testing.T) {
	f := newFixture(t)
	f.store.Replace([]domain.Order{
		{ID: "A", Total: 10},
		{ID: "B", Total: 5},
		{ID: "C", Total: 20},
	})

	require.NoError(t, f.svc.SetSort(domain.SortTotal))
	assert.Equal(t, []string{"C", "A", "B"}, ids(f.store.Snapshot()))

	err := f.svc.SetSort("cheapest")
	assert.ErrorIs(t, err, ErrUnknownSort)
	assert.Equal(t, domain.SortTotal, f.store.SortBy())
}

func TestDashboardService_AdvanceStatus(t *testing.T) {
	f := newFixture(t).withJournal().withCache()
	f.store.Replace([]domain.Order{{ID: "ORD-1", Status: domain.StatusWaiting, Timestamp: testNow}})

	f.api.On("UpdateOrderStatus", mock.Anything, "ORD-1", "preparing", testNow).Return(nil).Once()
	f.api.On("GetOrderStatus", mock.Anything, "ORD-1").Return("preparing", nil).Once()
	f.cache.On("Put", mock.Anything, "ORD-1", "preparing").Return(nil).Once()
	f.journal.On("Save", mock.Anything, mock.MatchedBy(func(e *domain.StatusChange) bool {
		return e.OrderID == "ORD-1" && e.Status == domain.StatusInProgress && e.APIStatus == "preparing" && e.Success
	})).Return(nil).Once()
	f.api.On("FetchOrders", mock.Anything).Return([]domain.RawOrder{
		CreateRawOrder("ORD-1", "preparing", 12, 1),
	}, nil).Once()

	require.NoError(t, f.svc.AdvanceStatus(context.Background(), "ORD-1", domain.StatusInProgress))

	o, _ := f.store.Get("ORD-1")
	assert.Equal(t, domain.StatusInProgress, o.Status)
	assert.Empty(t, f.svc.Banner())
	f.api.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.journal.AssertExpectations(t)
}

func TestDashboardService_AdvanceStatusRefreshOutlivesCaller(t *testing.T) {
	f := newFixture(t)
	f.store.Replace([]domain.Order{{ID: "ORD-1", Status: domain.StatusWaiting, Timestamp: testNow}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The caller goes away right after the API accepted the update.
	f.api.On("UpdateOrderStatus", mock.Anything, "ORD-1", "ready", testNow).Return(nil).Once().Run(func(mock.Arguments) {
		cancel()
	})
	f.api.On("GetOrderStatus", mock.Anything, "ORD-1").Return("ready", nil).Maybe()
	f.api.On("FetchOrders", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })).
		Return([]domain.RawOrder{CreateRawOrder("ORD-1", "ready", 12, 1)}, nil)
	f.api.On("FetchOrders", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() != nil })).
		Return(nil, context.Canceled)

	require.NoError(t, f.svc.AdvanceStatus(ctx, "ORD-1", domain.StatusReady))

	o, _ := f.store.Get("ORD-1")
	assert.Equal(t, domain.StatusReady, o.Status)
	assert.Empty(t, f.svc.Banner())
}

func TestDashboardService_AdvanceStatusFailure(t *testing.T) {
	f := newFixture(t).withJournal()
	f.store.Replace([]domain.Order{{ID: "ORD-1", Status: domain.StatusWaiting, Timestamp: testNow}})
	updateErr := &infra.StatusError{Op: "update order status", Code: 500}

	f.api.On("UpdateOrderStatus", mock.Anything, "ORD-1", "ready", testNow).Return(updateErr).Once()
	f.api.On("GetOrderStatus", mock.Anything, "ORD-1").Return("", errors.New("probe failed")).Maybe()
	f.journal.On("Save", mock.Anything, mock.MatchedBy(func(e *domain.StatusChange) bool {
		return !e.Success && e.Error != ""
	})).Return(nil).Once()
	f.api.On("FetchOrders", mock.Anything).Return([]domain.RawOrder{
		CreateRawOrder("ORD-1", "processing", 12, 1),
	}, nil).Once()

	err := f.svc.AdvanceStatus(context.Background(), "ORD-1", domain.StatusReady)

	var se *infra.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.Code)
	assert.Equal(t, bannerUpdateFailed, f.svc.Banner())

	o, _ := f.store.Get("ORD-1")
	assert.Equal(t, domain.StatusWaiting, o.Status, "no optimistic change")
	f.api.AssertExpectations(t)
	f.journal.AssertExpectations(t)
}

func TestDashboardService_AdvanceStatusRejected(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		status  domain.Status
		wantErr error
	}{
		{name: "missing id", orderID: "", status: domain.StatusReady, wantErr: ErrMissingOrderID},
		{name: "synthetic id", orderID: "ORD-SYN", status: domain.StatusReady, wantErr: ErrSyntheticOrderID},
		{name: "unknown status", orderID: "ORD-1", status: "lost", wantErr: domain.ErrUnknownStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t).withJournal().withCache()
			f.store.Replace([]domain.Order{
				{ID: "ORD-1", Status: domain.StatusWaiting},
				{ID: "ORD-SYN", Synthetic: true, Status: domain.StatusWaiting},
			})
			before := f.store.Snapshot()

			err := f.svc.AdvanceStatus(context.Background(), tt.orderID, tt.status)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, f.store.Snapshot())
			assert.Empty(t, f.svc.Banner())
			assert.Empty(t, f.api.Calls, "no network calls")
			assert.Empty(t, f.journal.Calls)
			assert.Empty(t, f.cache.Calls)
		})
	}
}

func TestDashboardService_Advance(t *testing.T) {
	t.Run("moves to next workflow step", func(t *testing.T) {
		f := newFixture(t)
		f.store.Replace([]domain.Order{{ID: "ORD-1", Status: domain.StatusReady}})
		f.api.On("UpdateOrderStatus", mock.Anything, "ORD-1", "completed", testNow).Return(nil).Once()
		f.api.On("GetOrderStatus", mock.Anything, "ORD-1").Return("completed", nil).Once()
		f.api.On("FetchOrders", mock.Anything).Return([]domain.RawOrder{CreateRawOrder("ORD-1", "completed", 1, 0)}, nil).Once()

		next, err := f.svc.Advance(context.Background(), "ORD-1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, next)
		f.api.AssertExpectations(t)
	})

	t.Run("terminal status", func(t *testing.T) {
		f := newFixture(t)
		f.store.Replace([]domain.Order{{ID: "ORD-1", Status: domain.StatusCanceled}})

		_, err := f.svc.Advance(context.Background(), "ORD-1")

		assert.ErrorIs(t, err, domain.ErrNoNextStatus)
		assert.Empty(t, f.api.Calls)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Advance(context.Background(), "ORD-404")

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("missing id", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Advance(context.Background(), "")

		assert.ErrorIs(t, err, ErrMissingOrderID)
		assert.Empty(t, f.api.Calls)
	})
}

func TestDashboardService_Page(t *testing.T) {
	f := newFixture(t)
	f.svc.SetConnectivity(func() bool { return true })
	f.api.On("FetchOrders", mock.Anything).Return(CreateRawOrders(25), nil)
	require.NoError(t, f.svc.LoadAll(context.Background()))

	p := f.svc.Page(0)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 25, p.TotalCount)
	assert.Len(t, p.Orders, 10)
	assert.Equal(t, []int{1, 2, 3}, p.PageNumbers)
	assert.True(t, p.Connected)

	p = f.svc.Page(4)
	assert.Equal(t, 3, p.Number)
	assert.Len(t, p.Orders, 5)
	assert.Equal(t, 21, p.Orders[0].RowNumber)

	require.NoError(t, f.svc.SetSort(domain.SortOldest))
	assert.Equal(t, 1, f.svc.Page(0).Number)
}

func TestDashboardService_Stats(t *testing.T) {
	f := newFixture(t)
	f.store.Replace([]domain.Order{
		{ID: "A", Status: domain.StatusWaiting},
		{ID: "B", Status: domain.StatusReady},
		{ID: "C", Status: domain.StatusReady},
	})

	assert.Equal(t, view.Stats{Total: 3, Waiting: 1, Ready: 2}, f.svc.Stats())
}

func TestDashboardService_HistoryAndProbe(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.History(context.Background(), "ORD-1", 10)
	assert.ErrorIs(t, err, ErrJournalDisabled)
	_, _, err = f.svc.Probe(context.Background(), "ORD-1")
	assert.ErrorIs(t, err, ErrProbeDisabled)

	f.withJournal().withCache()
	entries := []domain.StatusChange{{ID: 2, OrderID: "ORD-1", Status: domain.StatusReady, Success: true}}
	f.journal.On("FindByOrderID", mock.Anything, "ORD-1", 10).Return(entries, nil)
	f.cache.On("Get", mock.Anything, "ORD-1").Return("ready", true, nil)

	got, err := f.svc.History(context.Background(), "ORD-1", 10)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	status, ok, err := f.svc.Probe(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ready", status)
}

func TestDashboardService_ConcurrentEvents(t *testing.T) {
	f := newFixture(t)
	f.api.On("FetchOrders", mock.Anything).Return(CreateRawOrders(15), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = f.svc.LoadAll(context.Background())
		}()
		go func(i int) {
			defer wg.Done()
			_ = f.svc.ApplyCreated(context.Background(), CreateRawOrder(orderID(100+i), "ready", 1, 0))
		}(i)
		go func() {
			defer wg.Done()
			_ = f.svc.Page(2)
		}()
	}
	wg.Wait()

	for i, o := range f.store.Snapshot() {
		assert.Equal(t, i+1, o.RowNumber)
	}
}
