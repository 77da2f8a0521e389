package worker

import (
	"context"
	"time"

	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/trade-service/internal/saga"
)

type StaleSagaRepository interface {
	ListStaleSagas(ctx context.Context, updatedBefore time.Time, limit int32) ([]saga.Saga, error)
}

type SagaRecoverer interface {
	Recover(ctx context.Context, s saga.Saga) error
}

type RecoveryConfig struct {
	Interval   time.Duration `envconfig:"SAGA_RECOVERY_INTERVAL" default:"30s"`
	StaleAfter time.Duration `envconfig:"SAGA_STALE_AFTER" default:"1m"`
	BatchSize  int32         `envconfig:"SAGA_RECOVERY_BATCH_SIZE" default:"50"`
}

// SagaRecoveryWorker compensates checkouts whose coordinator stopped before
// reaching a terminal state.
type SagaRecoveryWorker struct {
	logger    logs.Logger
	repo      StaleSagaRepository
	recoverer SagaRecoverer
	config    RecoveryConfig
	now       func() time.Time
}

func NewSagaRecoveryWorker(logger logs.Logger, repo StaleSagaRepository, recoverer SagaRecoverer, config RecoveryConfig) *SagaRecoveryWorker {
	return &SagaRecoveryWorker{
		logger:    logger,
		repo:      repo,
		recoverer: recoverer,
		config:    config,
		now:       time.Now,
	}
}

// Start sweeps once right away and then on every tick until ctx ends.
func (w *SagaRecoveryWorker) Start(ctx context.Context) {
	w.logger.Info("starting saga recovery worker", "interval", w.config.Interval, "staleAfter", w.config.StaleAfter)
	if err := w.recoverStale(ctx); err != nil {
		w.logger.Error("error recovering stale sagas", "error", err)
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.recoverStale(ctx); err != nil {
				w.logger.Error("error recovering stale sagas", "error", err)
			}
		case <-ctx.Done():
			w.logger.Info("stopping saga recovery worker")
			return
		}
	}
}

func (w *SagaRecoveryWorker) recoverStale(ctx context.Context) error {
	stale, err := w.repo.ListStaleSagas(ctx, w.now().Add(-w.config.StaleAfter), w.config.BatchSize)
	if err != nil {
		return err
	}

	for _, s := range stale {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.recoverer.Recover(ctx, s); err != nil {
			w.logger.Error("failed to recover saga", "sagaId", s.ID.String(), "state", s.State, "error", err)
			continue
		}
		w.logger.Info("recovered stale saga", "sagaId", s.ID.String(), "previousState", s.State)
	}
	return nil
}
