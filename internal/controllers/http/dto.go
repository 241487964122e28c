package http

import (
	"time"

	"order-dashboard/internal/domain"
	"order-dashboard/internal/services"
	"order-dashboard/internal/view"
)

type SetSortRequest struct {
	Sort string `json:"sort" binding:"required"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderResponse struct {
	ID             string        `json:"id"`
	RowNumber      int           `json:"rowNumber"`
	CustomerName   string        `json:"customerName"`
	OrderType      string        `json:"orderType"`
	Items          []string      `json:"items"`
	Status         domain.Status `json:"status"`
	NextStatus     domain.Status `json:"nextStatus,omitempty"`
	Actionable     bool          `json:"actionable"`
	Timestamp      time.Time     `json:"timestamp"`
	Elapsed        string        `json:"elapsed"`
	Total          float64       `json:"total"`
	TotalFormatted string        `json:"totalFormatted"`
	Phone          string        `json:"phone,omitempty"`
	Address        string        `json:"address,omitempty"`
	TableNumber    string        `json:"tableNumber,omitempty"`
	UpdatedAt      string        `json:"updatedAt,omitempty"`
}

type PageResponse struct {
	Orders      []OrderResponse      `json:"orders"`
	Page        int                  `json:"page"`
	TotalPages  int                  `json:"totalPages"`
	TotalCount  int                  `json:"totalCount"`
	PageNumbers []int                `json:"pageNumbers"`
	Sort        domain.SortCriterion `json:"sort"`
	Connected   bool                 `json:"connected"`
	Error       string               `json:"error,omitempty"`
}

type AdvanceResponse struct {
	ID     string        `json:"id"`
	Status domain.Status `json:"status"`
}

type ProbeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func toOrderResponse(o domain.Order, now time.Time) OrderResponse {
	resp := OrderResponse{
		ID:             o.ID,
		RowNumber:      o.RowNumber,
		CustomerName:   o.CustomerName,
		OrderType:      o.OrderType,
		Items:          o.Items,
		Status:         o.Status,
		Actionable:     !o.Synthetic && !o.Status.Terminal(),
		Timestamp:      o.Timestamp,
		Elapsed:        view.Elapsed(now, o.Timestamp),
		Total:          o.Total,
		TotalFormatted: view.FormatTotal(o.Total),
		Phone:          o.Phone,
		Address:        o.Address,
		TableNumber:    o.TableNumber,
		UpdatedAt:      o.UpdatedAt,
	}
	if resp.Items == nil {
		resp.Items = []string{}
	}
	if next, err := o.Status.Next(); err == nil {
		resp.NextStatus = next
	}
	return resp
}

func toPageResponse(p services.PageView, now time.Time) PageResponse {
	orders := make([]OrderResponse, len(p.Orders))
	for i, o := range p.Orders {
		orders[i] = toOrderResponse(o, now)
	}
	return PageResponse{
		Orders:      orders,
		Page:        p.Number,
		TotalPages:  p.TotalPages,
		TotalCount:  p.TotalCount,
		PageNumbers: p.PageNumbers,
		Sort:        p.Sort,
		Connected:   p.Connected,
		Error:       p.Banner,
	}
}
