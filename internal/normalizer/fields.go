package normalizer

import (
	"fmt"
	"strconv"
	"strings"

	"order-dashboard/internal/domain"
)

// Fields lists, per canonical field, the raw field names producers use.
// Earlier names win.
var Fields = struct {
	ID           []string
	CustomerName []string
	OrderType    []string
	Items        []string
	Status       []string
	CreatedAt    []string
	Total        []string
	Phone        []string
	Address      []string
	TableNumber  []string
	UpdatedAt    []string
}{
	ID:           []string{"id", "orderId", "order_id", "orderID", "_id", "Order ID"},
	CustomerName: []string{"customerName", "customer_name", "Customer Name", "customer", "name"},
	OrderType:    []string{"orderType", "order_type", "Order Type", "type"},
	Items:        []string{"items", "Items", "orderItems", "order_items"},
	Status:       []string{"status", "Status", "orderStatus", "order_status"},
	CreatedAt:    []string{"createdAt", "created_at", "Created At", "timestamp", "orderDate", "date"},
	Total:        []string{"totalPrice", "total_price", "total", "Total", "amount", "price"},
	Phone:        []string{"phone", "phoneNumber", "phone_number", "Phone"},
	Address:      []string{"address", "deliveryAddress", "delivery_address", "Address"},
	TableNumber:  []string{"tableNumber", "table_number", "Table Number", "table"},
	UpdatedAt:    []string{"updatedAt", "updated_at", "lastUpdated"},
}

// FirstPresent returns the value of the first key in keys that holds a usable
// value. nil, blank strings and the "-" sentinel count as absent.
func FirstPresent(rec domain.RawOrder, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || !present(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

// FirstString is FirstPresent with the value rendered as a trimmed string.
func FirstString(rec domain.RawOrder, keys []string) (string, bool) {
	v, ok := FirstPresent(rec, keys)
	if !ok {
		return "", false
	}
	return stringify(v), true
}

func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		s := strings.TrimSpace(x)
		return s != "" && s != domain.EmptySentinel
	}
	return true
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
