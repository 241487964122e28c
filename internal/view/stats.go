package view

import (
	"fmt"
	"time"

	"order-dashboard/internal/domain"
)

type Stats struct {
	Total      int `json:"total"`
	Waiting    int `json:"waiting"`
	InProgress int `json:"inProgress"`
	Ready      int `json:"ready"`
	Completed  int `json:"completed"`
	Canceled   int `json:"canceled"`
}

func Summarize(orders []domain.Order) Stats {
	s := Stats{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case domain.StatusWaiting:
			s.Waiting++
		case domain.StatusInProgress:
			s.InProgress++
		case domain.StatusReady:
			s.Ready++
		case domain.StatusCompleted:
			s.Completed++
		case domain.StatusCanceled:
			s.Canceled++
		}
	}
	return s
}

// Elapsed renders how long ago ts was, in whole minutes.
func Elapsed(now, ts time.Time) string {
	minutes := int(now.Sub(ts) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dm ago", minutes)
}
