package domain

import "time"

// Push channel and event names used by the upstream notifier.
const (
	OrdersChannel     = "orders"
	EventOrderCreated = "new-order"
	EventOrderUpdated = "order-updated"
)

// StatusChange is one staff attempt to move an order to a new status.
type StatusChange struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   string    `json:"orderId" gorm:"size:128;not null;index"`
	Status    Status    `json:"status" gorm:"size:32;not null"`
	APIStatus string    `json:"apiStatus" gorm:"size:32;not null"`
	Success   bool      `json:"success" gorm:"not null"`
	Error     string    `json:"error,omitempty" gorm:"size:512"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
