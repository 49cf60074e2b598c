package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"healthline/internal/domain"
	"healthline/internal/repository"
)

var createPatientsTable = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		symptoms TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_patients_user_id ON patients(user_id)`,
}

type RecordRepository struct {
	pool *pgxpool.Pool
}

func NewRecordRepository(pool *pgxpool.Pool) repository.RecordRepository {
	return &RecordRepository{pool: pool}
}

func (r *RecordRepository) Init(ctx context.Context) error {
	for _, stmt := range createPatientsTable {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create patients table: %w", err)
		}
	}
	return nil
}

func (r *RecordRepository) Create(ctx context.Context, record *domain.PatientRecord) (int64, error) {
	record.CreatedAt = time.Now().UTC()

	err := r.pool.QueryRow(ctx, `
		INSERT INTO patients (user_id, name, phone, symptoms, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, record.OwnerUserID, record.Name, record.Phone, record.Symptoms, record.CreatedAt).Scan(&record.ID)
	if err != nil {
		if pgErrorCode(err) == foreignKeyViolation {
			return 0, fmt.Errorf("insert patient record: owner %d: %w", record.OwnerUserID, repository.ErrMissingReference)
		}
		return 0, fmt.Errorf("insert patient record: %w", err)
	}
	return record.ID, nil
}

func (r *RecordRepository) Get(ctx context.Context, id int64) (*domain.PatientRecord, error) {
	var record domain.PatientRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, phone, symptoms, created_at
		FROM patients
		WHERE id = $1
	`, id).Scan(&record.ID, &record.OwnerUserID, &record.Name, &record.Phone, &record.Symptoms, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("patient record %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan patient record: %w", err)
	}
	return &record, nil
}

func (r *RecordRepository) List(ctx context.Context) ([]domain.PatientRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, phone, symptoms, created_at
		FROM patients
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list patient records: %w", err)
	}
	return collectRecords(rows)
}

func (r *RecordRepository) ListByOwner(ctx context.Context, ownerUserID int64) ([]domain.PatientRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, phone, symptoms, created_at
		FROM patients
		WHERE user_id = $1
		ORDER BY id DESC
	`, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("list patient records by owner: %w", err)
	}
	return collectRecords(rows)
}

func (r *RecordRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient record %w", repository.ErrNotFound)
	}
	return nil
}

func collectRecords(rows pgx.Rows) ([]domain.PatientRecord, error) {
	defer rows.Close()

	records := make([]domain.PatientRecord, 0)
	for rows.Next() {
		var record domain.PatientRecord
		if err := rows.Scan(&record.ID, &record.OwnerUserID, &record.Name, &record.Phone, &record.Symptoms, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan patient record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patient records: %w", err)
	}
	return records, nil
}
