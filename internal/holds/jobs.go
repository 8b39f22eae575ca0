package holds

import (
	"context"
	"time"

	"tourbase/pkg/logger"
)

// Sweeper periodically flips lapsed holds to EXPIRED so stored status
// catches up with what the counting queries already enforce.
type Sweeper struct {
	service  Service
	interval time.Duration
	log      *logger.Logger
	done     chan struct{}
}

func NewSweeper(service Service, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
	s.log.Info("Hold sweeper started", "interval", s.interval.String())
}

func (s *Sweeper) Stop() {
	close(s.done)
	s.log.Info("Hold sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.service.ExpireStaleHolds(ctx)
	if err != nil {
		s.log.WithError(err).Error("Hold sweep failed")
		return
	}
	if expired > 0 {
		s.log.Info("Hold sweep completed", "expired", expired)
	}
}
