package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"order-dashboard/internal/domain"
	"order-dashboard/internal/infra"
	"order-dashboard/internal/normalizer"
	"order-dashboard/internal/repository"
	"order-dashboard/internal/store"
	"order-dashboard/internal/view"
)

var (
	ErrMissingOrderID   = errors.New("order id is required")
	ErrSyntheticOrderID = errors.New("order has no server-side id")
	ErrUnknownSort      = errors.New("unknown sort criterion")
	ErrOrderNotFound    = errors.New("order not found")
	ErrJournalDisabled  = errors.New("status journal is not configured")
	ErrProbeDisabled    = errors.New("status probe cache is not configured")
)

const defaultLoadTimeout = 30 * time.Second

const (
	bannerLoadFailed   = "Failed to load orders"
	bannerUpdateFailed = "Failed to update order status"
)

// PageView is the page of orders plus everything the dashboard renders
// around it.
type PageView struct {
	store.Page
	PageNumbers []int
	Connected   bool
	Banner      string
}

// DashboardService reconciles the order API and the push channel into one
// sorted, paginated list.
type DashboardService struct {
	api        infra.OrderAPI
	store      *store.OrderStore
	normalizer *normalizer.Normalizer
	logger     *slog.Logger
	now        func() time.Time

	loadTimeout time.Duration

	journal repository.JournalRepository
	probes  infra.StatusProbeCache

	refresh   singleflight.Group
	connected func() bool

	mu     sync.RWMutex
	banner string
}

func NewDashboardService(api infra.OrderAPI, s *store.OrderStore, n *normalizer.Normalizer, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		api:         api,
		store:       s,
		normalizer:  n,
		logger:      logger.With("component", "dashboard"),
		now:         time.Now,
		loadTimeout: defaultLoadTimeout,
		connected:   func() bool { return false },
	}
}

func (d *DashboardService) SetJournal(j repository.JournalRepository) {
	d.journal = j
}

func (d *DashboardService) SetStatusCache(c infra.StatusProbeCache) {
	d.probes = c
}

// SetLoadTimeout bounds each order list fetch.
func (d *DashboardService) SetLoadTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.loadTimeout = timeout
	}
}

// SetConnectivity installs the source of the push connection flag.
func (d *DashboardService) SetConnectivity(connected func() bool) {
	if connected != nil {
		d.connected = connected
	}
}

// Connected reports whether the push channel is currently connected.
func (d *DashboardService) Connected() bool {
	return d.connected()
}

func (d *DashboardService) SetClock(now func() time.Time) {
	if now != nil {
		d.now = now
	}
}

func (d *DashboardService) Now() time.Time {
	return d.now()
}

// Banner returns the error message shown above the list, or "".
func (d *DashboardService) Banner() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.banner
}

func (d *DashboardService) setBanner(msg string) {
	d.mu.Lock()
	d.banner = msg
	d.mu.Unlock()
}

// LoadAll fetches every order and replaces the list. On failure the current
// list is kept and the banner is set. Concurrent calls share one fetch.
func (d *DashboardService) LoadAll(ctx context.Context) error {
	_, err, _ := d.refresh.Do("orders", func() (any, error) {
		// The fetch is shared between callers, so it must outlive any one
		// of them.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.loadTimeout)
		defer cancel()
		return nil, d.loadAll(fetchCtx)
	})
	return err
}

func (d *DashboardService) loadAll(ctx context.Context) error {
	records, err := d.api.FetchOrders(ctx)
	if err != nil {
		d.logger.Error("load orders failed", "error", err)
		d.setBanner(bannerLoadFailed)
		return fmt.Errorf("load orders: %w", err)
	}

	if dropped := d.store.Replace(d.normalizer.NormalizeAll(records)); len(dropped) > 0 {
		d.logger.Warn("duplicate order ids dropped from payload", "order_ids", dropped)
	}
	d.setBanner("")
	d.logger.Debug("orders loaded", "count", len(records))
	return nil
}

// ApplyCreated adds a pushed order at the top of the list. An order that is
// already listed is updated in place instead.
func (d *DashboardService) ApplyCreated(_ context.Context, rec domain.RawOrder) error {
	o := d.normalizer.Normalize(rec)
	if !d.store.Upsert(o) {
		d.logger.Info("created event for known order, updated in place", "order_id", o.ID)
		return nil
	}
	d.logger.Info("order created", "order_id", o.ID)
	return nil
}

// ApplyUpdated replaces a listed order. Unknown orders are ignored.
func (d *DashboardService) ApplyUpdated(_ context.Context, rec domain.RawOrder) error {
	o := d.normalizer.Normalize(rec)
	if !d.store.Patch(o) {
		d.logger.Debug("update for unknown order ignored", "order_id", o.ID)
		return nil
	}
	d.logger.Info("order updated", "order_id", o.ID, "status", o.Status)
	return nil
}

func (d *DashboardService) SetSort(by domain.SortCriterion) error {
	if !by.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSort, by)
	}
	d.store.SetSort(by)
	return nil
}

// AdvanceStatus asks the API to move an order to status and reloads the list.
// The list only reflects the change once the API has accepted it.
func (d *DashboardService) AdvanceStatus(ctx context.Context, orderID string, status domain.Status) error {
	if orderID == "" {
		d.logger.Warn("status change without order id", "status", status)
		return ErrMissingOrderID
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStatus, status)
	}
	if o, ok := d.store.Get(orderID); ok && o.Synthetic {
		return fmt.Errorf("%w: %s", ErrSyntheticOrderID, orderID)
	}

	apiStatus := status.APIValue()
	updateErr := d.pushStatus(ctx, orderID, apiStatus)
	d.record(ctx, orderID, status, apiStatus, updateErr)

	if updateErr != nil {
		d.logger.Error("status update failed", "order_id", orderID, "status", apiStatus, "error", updateErr)
		if err := d.LoadAll(ctx); err != nil {
			d.logger.Warn("refresh after failed update", "error", err)
		}
		d.setBanner(bannerUpdateFailed)
		return fmt.Errorf("update order %s: %w", orderID, updateErr)
	}

	d.logger.Info("status updated", "order_id", orderID, "status", apiStatus)
	if err := d.LoadAll(ctx); err != nil {
		d.logger.Warn("refresh after update", "error", err)
	}
	return nil
}

// Advance moves an order one step along the workflow.
func (d *DashboardService) Advance(ctx context.Context, orderID string) (domain.Status, error) {
	if orderID == "" {
		d.logger.Warn("advance without order id")
		return "", ErrMissingOrderID
	}
	o, ok := d.store.Get(orderID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	next, err := o.Status.Next()
	if err != nil {
		return "", fmt.Errorf("order %s is %s: %w", orderID, o.Status, err)
	}
	return next, d.AdvanceStatus(ctx, orderID, next)
}

// pushStatus sends the update and, alongside it, probes get-status. Only the
// update decides the outcome.
func (d *DashboardService) pushStatus(ctx context.Context, orderID, apiStatus string) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.api.UpdateOrderStatus(gctx, orderID, apiStatus, d.now())
	})
	g.Go(func() error {
		d.probe(gctx, orderID)
		return nil
	})

	return g.Wait()
}

func (d *DashboardService) probe(ctx context.Context, orderID string) {
	status, err := d.api.GetOrderStatus(ctx, orderID)
	if err != nil {
		d.logger.Debug("status probe failed", "order_id", orderID, "error", err)
		return
	}
	if d.probes == nil {
		return
	}
	if err := d.probes.Put(ctx, orderID, status); err != nil {
		d.logger.Warn("cache status probe", "order_id", orderID, "error", err)
	}
}

func (d *DashboardService) record(ctx context.Context, orderID string, status domain.Status, apiStatus string, updateErr error) {
	if d.journal == nil {
		return
	}
	entry := &domain.StatusChange{
		OrderID:   orderID,
		Status:    status,
		APIStatus: apiStatus,
		Success:   updateErr == nil,
	}
	if updateErr != nil {
		entry.Error = updateErr.Error()
	}
	if err := d.journal.Save(context.WithoutCancel(ctx), entry); err != nil {
		d.logger.Warn("journal status change", "order_id", orderID, "error", err)
	}
}

// Page returns the active page, navigating first when requested > 0.
func (d *DashboardService) Page(requested int) PageView {
	p := d.store.Page(requested)
	return PageView{
		Page:        p,
		PageNumbers: view.PageNumbers(p.Number, p.TotalPages),
		Connected:   d.Connected(),
		Banner:      d.Banner(),
	}
}

func (d *DashboardService) Stats() view.Stats {
	return view.Summarize(d.store.Snapshot())
}

// History lists recorded status changes for an order, newest first.
func (d *DashboardService) History(ctx context.Context, orderID string, limit int) ([]domain.StatusChange, error) {
	if d.journal == nil {
		return nil, ErrJournalDisabled
	}
	if orderID == "" {
		return nil, ErrMissingOrderID
	}
	return d.journal.FindByOrderID(ctx, orderID, limit)
}

// Probe returns the last get-status answer cached for an order.
func (d *DashboardService) Probe(ctx context.Context, orderID string) (string, bool, error) {
	if d.probes == nil {
		return "", false, ErrProbeDisabled
	}
	if orderID == "" {
		return "", false, ErrMissingOrderID
	}
	return d.probes.Get(ctx, orderID)
}
