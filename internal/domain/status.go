package domain

import (
	"errors"
	"strings"
)

// Status is the dashboard's view of an order's progress.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in-progress"
	StatusReady      Status = "ready"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
)

var (
	ErrUnknownStatus = errors.New("unknown status")
	ErrNoNextStatus  = errors.New("status has no next step")
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusWaiting, StatusInProgress, StatusReady, StatusCompleted, StatusCanceled}

var fromAPI = map[string]Status{
	"processing":  StatusWaiting,
	"received":    StatusWaiting,
	"pending":     StatusWaiting,
	"new":         StatusWaiting,
	"preparing":   StatusInProgress,
	"in-progress": StatusInProgress,
	"in_progress": StatusInProgress,
	"cooking":     StatusInProgress,
	"ready":       StatusReady,
	"completed":   StatusCompleted,
	"delivered":   StatusCompleted,
	"done":        StatusCompleted,
	"cancelled":   StatusCanceled,
	"canceled":    StatusCanceled,
}

// The API spells canceled with a double "l"; keep it that way.
var toAPI = map[Status]string{
	StatusWaiting:    "processing",
	StatusInProgress: "preparing",
	StatusReady:      "ready",
	StatusCompleted:  "completed",
	StatusCanceled:   "cancelled",
}

var rank = map[Status]int{
	StatusWaiting:    1,
	StatusInProgress: 2,
	StatusReady:      3,
	StatusCompleted:  4,
	StatusCanceled:   5,
}

var next = map[Status]Status{
	StatusWaiting:    StatusInProgress,
	StatusInProgress: StatusReady,
	StatusReady:      StatusCompleted,
}

// StatusFromAPI maps an API status string to a dashboard status.
// Unrecognized values map to StatusWaiting.
func StatusFromAPI(raw string) Status {
	if s, ok := fromAPI[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusWaiting
}

// ParseStatus accepts only the five dashboard status names.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrUnknownStatus
	}
	return s, nil
}

func (s Status) Valid() bool {
	_, ok := rank[s]
	return ok
}

// APIValue returns the string the order API expects for s.
func (s Status) APIValue() string {
	if v, ok := toAPI[s]; ok {
		return v
	}
	return toAPI[StatusWaiting]
}

// Rank orders statuses for the status sort.
func (s Status) Rank() int {
	if r, ok := rank[s]; ok {
		return r
	}
	return len(rank) + 1
}

// Next is the status a staff "advance" action moves to.
func (s Status) Next() (Status, error) {
	if n, ok := next[s]; ok {
		return n, nil
	}
	return "", ErrNoNextStatus
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}
