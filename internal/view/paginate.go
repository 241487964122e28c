package view

import "order-dashboard/internal/domain"

// pageWindow is how many page numbers the navigation shows at once.
const pageWindow = 5

// TotalPages is ceil(count/size); zero for an empty list.
func TotalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Clamp keeps a requested page within [1, total]. With no pages it returns 1.
func Clamp(page, total int) int {
	if total < 1 || page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// Paginate returns the orders on page (1-based) of the given size.
func Paginate(orders []domain.Order, page, size int) []domain.Order {
	if size <= 0 || page < 1 {
		return []domain.Order{}
	}
	start := (page - 1) * size
	if start >= len(orders) {
		return []domain.Order{}
	}
	end := start + size
	if end > len(orders) {
		end = len(orders)
	}
	out := make([]domain.Order, end-start)
	copy(out, orders[start:end])
	return out
}

// PageNumbers returns up to five page numbers centred on current, shifted
// at either end. It returns nothing when there is at most one page.
func PageNumbers(current, total int) []int {
	if total <= 1 {
		return []int{}
	}
	start := current - pageWindow/2
	if start < 1 {
		start = 1
	}
	end := start + pageWindow - 1
	if end > total {
		end = total
	}
	if end-start+1 < pageWindow {
		start = end - pageWindow + 1
		if start < 1 {
			start = 1
		}
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Pager tracks the active page over a list whose length changes.
type Pager struct {
	Size    int
	current int
}

func NewPager(size int) *Pager {
	if size <= 0 {
		size = domain.PageSize
	}
	return &Pager{Size: size, current: 1}
}

func (p *Pager) Current() int { return p.current }

// GoTo moves to page, clamped to the pages available for count orders.
func (p *Pager) GoTo(page, count int) int {
	p.current = Clamp(page, TotalPages(count, p.Size))
	return p.current
}

// Reset returns to the first page.
func (p *Pager) Reset() { p.current = 1 }

// Fit is called after the list changes; if the active page no longer exists
// the pager goes back to page 1.
func (p *Pager) Fit(count int) {
	if p.current > TotalPages(count, p.Size) {
		p.current = 1
	}
}
