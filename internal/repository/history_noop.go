package repository

import (
	"context"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
)

// NoopHistory is used when no history backend is configured.
type NoopHistory struct{}

var _ domrepo.HistoryRecorder = NoopHistory{}

func (NoopHistory) Init(context.Context) error                             { return nil }
func (NoopHistory) RecordSnapshot(context.Context, *models.Snapshot) error { return nil }
func (NoopHistory) Close() error                                           { return nil }
