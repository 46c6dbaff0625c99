package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"variantsync-backend/internal/domain"
	"variantsync-backend/pkg/logger"
	"variantsync-backend/pkg/utils"
)

type SweepUsecase interface {
	// Start launches a background sweep over every configured store.
	// Only one sweep runs at a time.
	Start() (*domain.SweepResult, error)

	// Cancel stops the running sweep. The per-store resume cursor stays
	// persisted so the next Start picks up where this one left off.
	Cancel() (*domain.SweepResult, error)

	// Status reports the current or most recently finished sweep.
	Status() (*domain.SweepResult, error)

	// Shutdown cancels any running sweep and waits for it to wind down.
	Shutdown()
}

type sweepUsecase struct {
	engine   *syncUsecase
	pageSize int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	result  *domain.SweepResult
}

func NewSweepUsecase(engine SyncUsecase, pageSize int) SweepUsecase {
	return &sweepUsecase{
		engine:   engine.(*syncUsecase),
		pageSize: pageSize,
	}
}

func (s *sweepUsecase) Start() (*domain.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, domain.ErrSweepRunning
	}

	result := &domain.SweepResult{
		RunID:     utils.GenerateUUID(),
		State:     domain.SweepStateRunning,
		StartedAt: time.Now().UTC(),
		Stores:    make(map[string]*domain.StoreSweepResult),
	}
	for key := range s.engine.stores {
		result.Stores[key] = &domain.StoreSweepResult{StoreKey: key}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.result = result

	go s.run(ctx, result)

	logger.Info().Str("run_id", result.RunID).Int("stores", len(result.Stores)).Msg("sweep started")
	return s.snapshotLocked(), nil
}

func (s *sweepUsecase) Cancel() (*domain.SweepResult, error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil, domain.ErrNoSweep
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

func (s *sweepUsecase) Status() (*domain.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil, domain.ErrNoSweep
	}
	return s.snapshotLocked(), nil
}

func (s *sweepUsecase) Shutdown() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
}

// snapshotLocked deep-copies the live result so callers never race the
// sweep goroutine. Caller holds s.mu.
func (s *sweepUsecase) snapshotLocked() *domain.SweepResult {
	out := *s.result
	out.Stores = make(map[string]*domain.StoreSweepResult, len(s.result.Stores))
	for key, sr := range s.result.Stores {
		copied := *sr
		out.Stores[key] = &copied
	}
	return &out
}

func (s *sweepUsecase) run(ctx context.Context, result *domain.SweepResult) {
	defer func() {
		now := time.Now().UTC()
		s.mu.Lock()
		result.FinishedAt = &now
		if result.State == domain.SweepStateRunning {
			result.State = domain.SweepStateCompleted
		}
		s.running = false
		s.cancel = nil
		close(s.done)
		s.mu.Unlock()

		logger.Info().
			Str("run_id", result.RunID).
			Str("state", result.State).
			Msg("sweep finished")
	}()

	// Stable order keeps interleaved logs readable across runs.
	keys := make([]string, 0, len(s.engine.stores))
	for key := range s.engine.stores {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if ctx.Err() != nil {
			s.setState(result, domain.SweepStateCancelled)
			return
		}

		store := s.engine.stores[key]
		if err := s.sweepStore(ctx, store, result.RunID, result.Stores[key]); err != nil {
			if errors.Is(err, context.Canceled) {
				s.setState(result, domain.SweepStateCancelled)
				return
			}
			// One broken store must not stall the rest of the fleet.
			s.mu.Lock()
			result.Stores[key].Error = err.Error()
			result.State = domain.SweepStateFailed
			s.mu.Unlock()
			logger.Error().Err(err).Str("store", key).Msg("store sweep failed")
		}
	}
}

func (s *sweepUsecase) setState(result *domain.SweepResult, state string) {
	s.mu.Lock()
	result.State = state
	s.mu.Unlock()
}

// sweepStore walks the store's full product listing, reconciling each
// product and persisting the page cursor so an interrupted run resumes
// at the last completed page instead of the beginning.
func (s *sweepUsecase) sweepStore(ctx context.Context, store domain.Store, runID string, progress *domain.StoreSweepResult) error {
	cursor, err := s.engine.snapshots.GetSweepCursor(ctx, store.URL)
	if err != nil {
		return err
	}
	if cursor != "" {
		s.mu.Lock()
		progress.ResumedCursor = cursor
		s.mu.Unlock()
		logger.Info().Str("store", store.Key).Str("cursor", cursor).Msg("resuming sweep from saved cursor")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := s.engine.client.ListProducts(ctx, store, cursor, s.pageSize)
		if err != nil {
			return err
		}

		for _, product := range page.Products {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := s.engine.reconcileProduct(ctx, store, product)
			s.mu.Lock()
			progress.Products++
			switch {
			case err != nil:
				progress.Failed++
			case res.NoOp:
				progress.NoOps++
			default:
				progress.Written++
			}
			s.mu.Unlock()
		}

		cursor = page.EndCursor
		s.mu.Lock()
		progress.LastCursor = cursor
		s.mu.Unlock()

		if !page.HasNextPage {
			break
		}
		if err := s.engine.snapshots.SetSweepCursor(ctx, store.URL, cursor, runID); err != nil {
			return err
		}
	}

	return s.engine.snapshots.ClearSweepCursor(ctx, store.URL)
}
