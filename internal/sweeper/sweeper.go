// Package sweeper revalidates stored invite codes on a fixed cadence,
// independent of any guild's manual scan.
package sweeper

import (
	"context"

	"invite-sentry/internal/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Store is the slice of the storage layer the sweeper reads. It never
// touches guild settings, so it cannot interfere with a running scan.
type Store interface {
	UncheckedCodes(ctx context.Context, limit int) ([]storage.CodeRef, error)
	CheckedCodes(ctx context.Context, limit int) ([]storage.CodeRef, error)
}

// Validator checks a batch of codes with bounded concurrency.
type Validator interface {
	CheckBatch(ctx context.Context, refs []storage.CodeRef)
}

type Sweeper struct {
	store     Store
	validator Validator
	logger    *zap.Logger
	batchSize int
	cron      *cron.Cron
}

func New(store Store, v Validator, logger *zap.Logger, batchSize int) *Sweeper {
	return &Sweeper{store: store, validator: v, logger: logger, batchSize: batchSize}
}

// Start schedules the two sweeps on alternating ten-minute boundaries:
// never-checked codes first, then the oldest still-valid checked codes.
func (s *Sweeper) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("*/20 * * * *", func() { s.sweepUnchecked(context.Background()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("10-59/20 * * * *", func() { s.sweepChecked(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("sweeper scheduled", zap.Int("batch_size", s.batchSize))
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Sweeper) sweepUnchecked(ctx context.Context) {
	refs, err := s.store.UncheckedCodes(ctx, s.batchSize)
	if err != nil {
		s.logger.Warn("unchecked sweep query failed", zap.Error(err))
		return
	}
	if len(refs) == 0 {
		return
	}
	s.validator.CheckBatch(ctx, refs)
	s.logger.Debug("unchecked sweep done", zap.Int("codes", len(refs)))
}

func (s *Sweeper) sweepChecked(ctx context.Context) {
	refs, err := s.store.CheckedCodes(ctx, s.batchSize)
	if err != nil {
		s.logger.Warn("checked sweep query failed", zap.Error(err))
		return
	}
	if len(refs) == 0 {
		return
	}
	s.validator.CheckBatch(ctx, refs)
	s.logger.Debug("checked sweep done", zap.Int("codes", len(refs)))
}
