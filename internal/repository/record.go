package repository

import (
	"context"

	"healthline/internal/domain"
)

// RecordRepository exposes persistence operations for patient records.
// List and ListByOwner return newest records first.
type RecordRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, record *domain.PatientRecord) (int64, error)
	Get(ctx context.Context, id int64) (*domain.PatientRecord, error)
	List(ctx context.Context) ([]domain.PatientRecord, error)
	ListByOwner(ctx context.Context, ownerUserID int64) ([]domain.PatientRecord, error)
	Delete(ctx context.Context, id int64) error
}
