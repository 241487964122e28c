// Package store keeps the dashboard's canonical order list in memory.
package store

import (
	"sync"

	"order-dashboard/internal/domain"
	"order-dashboard/internal/view"
)

// Page is one slice of the sorted list plus the navigation state.
type Page struct {
	Orders     []domain.Order
	Number     int
	TotalPages int
	TotalCount int
	Sort       domain.SortCriterion
}

// OrderStore holds the sorted order list, the active sort criterion and the
// active page. Every mutation resorts and renumbers the whole list, so row
// numbers always run 1..N in list order.
type OrderStore struct {
	mu     sync.RWMutex
	orders []domain.Order
	sortBy domain.SortCriterion
	pager  *view.Pager
}

func New() *OrderStore {
	return &OrderStore{
		orders: []domain.Order{},
		sortBy: domain.SortNewest,
		pager:  view.NewPager(domain.PageSize),
	}
}

// Replace swaps in a fresh list. Later duplicates of an id are dropped and
// their ids returned.
func (s *OrderStore) Replace(orders []domain.Order) []string {
	seen := make(map[string]struct{}, len(orders))
	list := make([]domain.Order, 0, len(orders))
	var dropped []string
	for _, o := range orders {
		if _, dup := seen[o.ID]; dup {
			dropped = append(dropped, o.ID)
			continue
		}
		seen[o.ID] = struct{}{}
		list = append(list, o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(list)
	return dropped
}

// Upsert prepends o, or replaces the entry with the same id in place.
// It reports whether o was new.
func (s *OrderStore) Upsert(o domain.Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(o.ID); i >= 0 {
		list := s.copyLocked()
		list[i] = o
		s.setLocked(list)
		return false
	}

	list := make([]domain.Order, 0, len(s.orders)+1)
	list = append(list, o)
	list = append(list, s.orders...)
	s.setLocked(list)
	return true
}

// Patch replaces the entry with o's id. It is a no-op when the id is unknown.
func (s *OrderStore) Patch(o domain.Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(o.ID)
	if i < 0 {
		return false
	}
	list := s.copyLocked()
	list[i] = o
	s.setLocked(list)
	return true
}

// SetSort resorts the current list and goes back to page 1.
func (s *OrderStore) SetSort(by domain.SortCriterion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sortBy = by
	s.setLocked(s.orders)
	s.pager.Reset()
}

func (s *OrderStore) SortBy() domain.SortCriterion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortBy
}

// Page returns the active page. A positive requested page navigates first,
// clamped to the pages available.
func (s *OrderStore) Page(requested int) Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requested > 0 {
		s.pager.GoTo(requested, len(s.orders))
	}
	n := s.pager.Current()
	return Page{
		Orders:     view.Paginate(s.orders, n, s.pager.Size),
		Number:     n,
		TotalPages: view.TotalPages(len(s.orders), s.pager.Size),
		TotalCount: len(s.orders),
		Sort:       s.sortBy,
	}
}

// Snapshot returns a copy of the sorted list.
func (s *OrderStore) Snapshot() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *OrderStore) Get(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.orders[i], true
	}
	return domain.Order{}, false
}

func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func (s *OrderStore) setLocked(list []domain.Order) {
	sorted := view.Sort(list, s.sortBy)
	view.Renumber(sorted)
	s.orders = sorted
	s.pager.Fit(len(sorted))
}

func (s *OrderStore) indexLocked(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *OrderStore) copyLocked() []domain.Order {
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}
