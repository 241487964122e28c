package view

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"order-dashboard/internal/domain"
)

func makeOrders(n int) []domain.Order {
	out := make([]domain.Order, n)
	for i := range out {
		out[i] = domain.Order{ID: fmt.Sprintf("ORD-%03d", i+1)}
	}
	return out
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 3, TotalPages(25, 10))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, Clamp(4, 3))
	assert.Equal(t, 1, Clamp(0, 3))
	assert.Equal(t, 1, Clamp(-2, 3))
	assert.Equal(t, 2, Clamp(2, 3))
	assert.Equal(t, 1, Clamp(5, 0))
}

func TestPaginate(t *testing.T) {
	orders := makeOrders(25)

	first := Paginate(orders, 1, 10)
	assert.Len(t, first, 10)
	assert.Equal(t, "ORD-001", first[0].ID)

	last := Paginate(orders, 3, 10)
	assert.Len(t, last, 5)
	assert.Equal(t, "ORD-021", last[0].ID)
	assert.Equal(t, "ORD-025", last[4].ID)

	assert.Empty(t, Paginate(orders, 4, 10))
	assert.Empty(t, Paginate(orders, 0, 10))
}

func TestPager(t *testing.T) {
	p := NewPager(domain.PageSize)
	assert.Equal(t, 1, p.Current())

	assert.Equal(t, 3, p.GoTo(4, 25), "past the end clamps to the last page")
	assert.Equal(t, 1, p.GoTo(0, 25))
	assert.Equal(t, 2, p.GoTo(2, 25))

	p.Fit(25)
	assert.Equal(t, 2, p.Current(), "page still exists")

	p.GoTo(3, 25)
	p.Fit(12)
	assert.Equal(t, 1, p.Current(), "shrinking below the active page resets to 1")

	p.GoTo(2, 12)
	p.Reset()
	assert.Equal(t, 1, p.Current())
}

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		current, total int
		want           []int
	}{
		{1, 1, []int{}},
		{1, 0, []int{}},
		{1, 3, []int{1, 2, 3}},
		{1, 10, []int{1, 2, 3, 4, 5}},
		{5, 10, []int{3, 4, 5, 6, 7}},
		{10, 10, []int{6, 7, 8, 9, 10}},
		{9, 10, []int{6, 7, 8, 9, 10}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.current, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, PageNumbers(tt.current, tt.total))
		})
	}
}
