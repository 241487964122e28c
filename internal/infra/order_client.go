package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"order-dashboard/internal/domain"
)

var ErrMalformedPayload = errors.New("order list payload is not an array")

// StatusError is returned when the order API answers with an unexpected code.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: order api returned status %d", e.Op, e.Code)
}

type updateOrderRequest struct {
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updatedAt"`
}

// OrderClient talks to the order webhooks.
type OrderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchOrders returns the raw order records. Entries that are not JSON
// objects are skipped.
func (c *OrderClient) FetchOrders(ctx context.Context) ([]domain.RawOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/webhook/get-orders", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "fetch orders", Code: resp.StatusCode}
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMalformedPayload
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	list, ok := body.([]any)
	if !ok {
		return nil, ErrMalformedPayload
	}

	out := make([]domain.RawOrder, 0, len(list))
	for _, entry := range list {
		if rec, ok := entry.(map[string]any); ok {
			out = append(out, domain.RawOrder(rec))
		}
	}
	return out, nil
}

// UpdateOrderStatus posts the new API status for orderID. 200 and 201 are
// success.
func (c *OrderClient) UpdateOrderStatus(ctx context.Context, orderID, apiStatus string, updatedAt time.Time) error {
	payload, err := json.Marshal(updateOrderRequest{
		OrderID:   orderID,
		Status:    apiStatus,
		UpdatedAt: updatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/webhook/update-order", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update order %s: %w", orderID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &StatusError{Op: "update order", Code: resp.StatusCode}
	}
	return nil
}

// GetOrderStatus asks the API for an order's current status. A JSON object
// body yields its "status" field, anything else the trimmed body text.
func (c *OrderClient) GetOrderStatus(ctx context.Context, orderID string) (string, error) {
	u := c.baseURL + "/webhook/get-status?orderId=" + url.QueryEscape(orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get status %s: %w", orderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Op: "get status", Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		if s, ok := obj["status"].(string); ok {
			return s, nil
		}
	}
	return strings.TrimSpace(string(body)), nil
}
