// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic trash sweep.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/keepreverse/newsline-go/internal/news"
)

// Scheduler drives the scheduled purge of expired trash.
type Scheduler struct {
	engine        *news.Engine
	cron          *cron.Cron
	retentionDays int
	logger        *slog.Logger
}

// New creates a scheduler purging trashed news older than retentionDays.
func New(engine *news.Engine, retentionDays int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:        engine,
		cron:          cron.New(),
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Start registers the daily sweep and starts the cron loop. The sweep also
// runs once at startup so a long-stopped instance catches up immediately.
func (s *Scheduler) Start() error {
	// Daily at 03:00
	_, err := s.cron.AddFunc("0 3 * * *", s.sweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "retention_days", s.retentionDays)

	go s.sweep()
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) sweep() {
	purged, err := s.engine.PurgeExpired(context.Background(), s.retentionDays)
	if err != nil {
		s.logger.Error("trash sweep failed", "error", err)
		return
	}
	if purged > 0 {
		s.logger.Info("trash sweep purged expired news", "count", purged)
	}
}
