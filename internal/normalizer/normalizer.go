// Package normalizer turns raw order records from the API or the push
// channel into canonical domain orders.
package normalizer

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"order-dashboard/internal/domain"
)

// defaultRawStatus is assumed when a record carries no status at all.
const defaultRawStatus = "received"

var syntheticSeq atomic.Uint64

type Normalizer struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*Normalizer)

// WithClock replaces time.Now, used for fallback timestamps and synthetic ids.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithLocation sets the zone for timestamps that carry none.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps rec onto a canonical order. Bad sub-fields fall back to
// defaults; it never fails.
func (n *Normalizer) Normalize(rec domain.RawOrder) domain.Order {
	o := domain.Order{
		CustomerName: domain.DefaultCustomerName,
		OrderType:    domain.DefaultOrderType,
		Items:        []string{},
	}

	if id, ok := FirstString(rec, Fields.ID); ok {
		o.ID = id
	} else {
		o.ID = n.syntheticID()
		o.Synthetic = true
	}

	if v, ok := FirstString(rec, Fields.CustomerName); ok {
		o.CustomerName = v
	}
	if v, ok := FirstString(rec, Fields.OrderType); ok {
		o.OrderType = v
	}
	if v, ok := FirstPresent(rec, Fields.Items); ok {
		o.Items = itemsFromValue(v)
	}

	rawStatus := defaultRawStatus
	if v, ok := FirstString(rec, Fields.Status); ok {
		rawStatus = v
	}
	o.Status = domain.StatusFromAPI(rawStatus)

	created, hasCreated := FirstPresent(rec, Fields.CreatedAt)
	o.Timestamp = n.parseTimestamp(created, hasCreated)

	if v, ok := FirstPresent(rec, Fields.Total); ok {
		o.Total = ParseTotal(v)
	}

	o.Phone, _ = FirstString(rec, Fields.Phone)
	o.Address, _ = FirstString(rec, Fields.Address)
	o.TableNumber, _ = FirstString(rec, Fields.TableNumber)

	if v, ok := FirstString(rec, Fields.UpdatedAt); ok {
		o.UpdatedAt = v
	} else if hasCreated {
		o.UpdatedAt = stringify(created)
	}

	return o
}

// NormalizeAll normalizes every record, keeping input order.
func (n *Normalizer) NormalizeAll(recs []domain.RawOrder) []domain.Order {
	out := make([]domain.Order, 0, len(recs))
	for _, rec := range recs {
		out = append(out, n.Normalize(rec))
	}
	return out
}

func (n *Normalizer) syntheticID() string {
	return fmt.Sprintf("ORD-%d-%d", n.now().UnixMilli(), syntheticSeq.Add(1))
}

// ParseTotal reads an amount from a number or numeric string. Anything
// unparseable or negative is 0.
func ParseTotal(v any) float64 {
	var d decimal.Decimal
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		d = decimal.NewFromFloat(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(x), "$"))
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return 0
		}
		d = parsed
	default:
		return 0
	}
	if d.IsNegative() {
		return 0
	}
	return d.InexactFloat64()
}
