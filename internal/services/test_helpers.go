package services

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"order-dashboard/internal/domain"
	"order-dashboard/internal/mocks"
	"order-dashboard/internal/normalizer"
	"order-dashboard/internal/store"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	api     *mocks.MockOrderAPI
	journal *mocks.MockJournalRepository
	cache   *mocks.MockStatusCache
	store   *store.OrderStore
	svc     *DashboardService
	logs    *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api:     new(mocks.MockOrderAPI),
		journal: new(mocks.MockJournalRepository),
		cache:   new(mocks.MockStatusCache),
		store:   store.New(),
		logs:    new(bytes.Buffer),
	}
	clock := func() time.Time { return testNow }
	logger := slog.New(slog.NewTextHandler(f.logs, nil))
	n := normalizer.New(normalizer.WithClock(clock), normalizer.WithLocation(time.UTC))

	f.svc = NewDashboardService(f.api, f.store, n, logger)
	f.svc.SetClock(clock)
	return f
}

func (f *fixture) withJournal() *fixture {
	f.svc.SetJournal(f.journal)
	return f
}

func (f *fixture) withCache() *fixture {
	f.svc.SetStatusCache(f.cache)
	return f
}

func CreateRawOrder(id, status string, total any, minutesAgo int) domain.RawOrder {
	return domain.RawOrder{
		"id":           id,
		"customerName": "Customer " + id,
		"status":       status,
		"totalPrice":   total,
		"items":        "Burger, Coke",
		"createdAt":    testNow.Add(-time.Duration(minutesAgo) * time.Minute).Format(time.RFC3339),
	}
}

func CreateRawOrders(n int) []domain.RawOrder {
	out := make([]domain.RawOrder, n)
	for i := range out {
		out[i] = CreateRawOrder(orderID(i+1), "processing", float64(i+1), i)
	}
	return out
}

func orderID(i int) string {
	return "ORD-" + string(rune('A'+(i-1)/26)) + string(rune('A'+(i-1)%26))
}

func ids(orders []domain.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}
