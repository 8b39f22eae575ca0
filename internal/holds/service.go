package holds

import (
	"context"
	"fmt"
	"time"

	"tourbase/internal/availability"
	"tourbase/internal/shared/clock"
	"tourbase/internal/shared/config"
	"tourbase/pkg/logger"

	"github.com/google/uuid"
)

// SlotFinder resolves a single slot, with live counts, for validation.
type SlotFinder interface {
	FindSlot(ctx context.Context, productID int64, date, startTime string) (*availability.Slot, error)
}

// Invalidator drops cached availability after a hold changes counts.
type Invalidator interface {
	Invalidate(ctx context.Context, productID int64, date string)
}

type Service interface {
	CreateHold(ctx context.Context, req CreateHoldRequest) (*Hold, error)
	GetHold(ctx context.Context, id uuid.UUID) (*Hold, error)
	ReleaseHold(ctx context.Context, id uuid.UUID) error
	ReleaseSessionHolds(ctx context.Context, sessionID string) (int64, error)
	ExpireStaleHolds(ctx context.Context) (int, error)
	CountActiveHeldParticipants(ctx context.Context, productID int64, date, startTime string, now time.Time) (int, error)
}

type service struct {
	repo        Repository
	finder      SlotFinder
	invalidator Invalidator
	clk         clock.Clock
	cfg         config.BookingConfig
	log         *logger.Logger
}

func NewService(repo Repository, finder SlotFinder, invalidator Invalidator, clk clock.Clock, cfg config.BookingConfig, log *logger.Logger) Service {
	return &service{
		repo:        repo,
		finder:      finder,
		invalidator: invalidator,
		clk:         clk,
		cfg:         cfg,
		log:         log,
	}
}

func (s *service) CreateHold(ctx context.Context, req CreateHoldRequest) (*Hold, error) {
	if !s.cfg.HoldsEnabled {
		return nil, ErrHoldsDisabled
	}
	if req.Participants < 1 || req.Participants > s.cfg.MaxParticipantsPerReq {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidParticipants, s.cfg.MaxParticipantsPerReq)
	}

	// Closed slots are dropped during resolution, so a nil slot covers
	// both unknown and closed. A full slot is not rejected here: the
	// capacity check under the row lock decides, so the caller always
	// gets the remaining count and a session can replace its own hold.
	slot, err := s.finder.FindSlot(ctx, req.ProductID, req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	now := s.clk.Now()
	hold := &Hold{
		ID:             uuid.New(),
		ProductID:      req.ProductID,
		ScheduleRuleID: slot.ScheduleRuleID,
		SlotDate:       slot.Date,
		SlotTime:       slot.StartTime,
		Participants:   req.Participants,
		SessionID:      req.SessionID,
		Status:         StatusActive.String(),
		ExpiresAt:      now.Add(s.cfg.HoldTTL),
	}

	if err := s.repo.CreateHoldWithCapacityCheck(ctx, hold, slot.Capacity, now); err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, hold.ProductID, hold.SlotDate)
	}
	s.log.LogHoldCreated(ctx, hold.ID.String(), hold.ProductID, hold.Participants)

	return hold, nil
}

func (s *service) GetHold(ctx context.Context, id uuid.UUID) (*Hold, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ReleaseHold(ctx context.Context, id uuid.UUID) error {
	hold, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Release(ctx, id); err != nil {
		return err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, hold.ProductID, hold.SlotDate)
	}
	return nil
}

func (s *service) ReleaseSessionHolds(ctx context.Context, sessionID string) (int64, error) {
	return s.repo.ReleaseSessionHolds(ctx, sessionID, s.clk.Now())
}

// ExpireStaleHolds flips lapsed holds and invalidates the cache for every
// slot they were counted against. Run periodically by the sweeper; expired
// holds already stopped counting at read time, so the sweep only reconciles
// stored status.
func (s *service) ExpireStaleHolds(ctx context.Context) (int, error) {
	stale, err := s.repo.ExpireStale(ctx, s.clk.Now())
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if s.invalidator != nil {
		seen := make(map[string]struct{}, len(stale))
		for _, h := range stale {
			key := fmt.Sprintf("%d:%s", h.ProductID, h.SlotDate)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			s.invalidator.Invalidate(ctx, h.ProductID, h.SlotDate)
		}
	}

	s.log.LogHoldsExpired(ctx, int64(len(stale)))
	return len(stale), nil
}

func (s *service) CountActiveHeldParticipants(ctx context.Context, productID int64, date, startTime string, now time.Time) (int, error) {
	return s.repo.CountActiveHeldParticipants(ctx, productID, date, startTime, now)
}
