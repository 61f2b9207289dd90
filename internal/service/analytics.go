package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/thefaces/checkout-service/internal/repository"
)

const analyticsWriteBudget = 5 * time.Second

// AnalyticsSink records events on a best-effort basis. A failed write is
// logged and swallowed; the checkout outcome never depends on it.
type AnalyticsSink struct {
	repo repository.AnalyticsRepository
	wg   sync.WaitGroup
}

func NewAnalyticsSink(repo repository.AnalyticsRepository) *AnalyticsSink {
	return &AnalyticsSink{
		repo: repo,
	}
}

// Record dispatches the write in the background and returns immediately.
// The caller's context is deliberately not used: the event still gets
// written after the response goes out.
func (s *AnalyticsSink) Record(eventType string, payload interface{}) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("analytics panic recovered: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), analyticsWriteBudget)
		defer cancel()

		if err := s.repo.Create(ctx, eventType, payload); err != nil {
			log.Printf("analytics error: %v", err)
		}
	}()
}

// Wait blocks until in-flight events are written. Used on shutdown so a
// SIGTERM does not drop the tail of the event stream.
func (s *AnalyticsSink) Wait() {
	s.wg.Wait()
}
