package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"healthline/internal/domain"
	"healthline/internal/repository"
)

const createPatientsTable = `
CREATE TABLE IF NOT EXISTS patients (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	symptoms TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

const createPatientsOwnerIndex = `CREATE INDEX IF NOT EXISTS idx_patients_user_id ON patients(user_id);`

const selectRecordColumns = `
SELECT id, COALESCE(user_id, 0), COALESCE(name, ''), COALESCE(phone, ''), COALESCE(symptoms, ''), created_at
FROM patients`

type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) repository.RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPatientsTable); err != nil {
		return fmt.Errorf("create patients table: %w", err)
	}
	if err := ensureColumns(ctx, r.db, "patients", patientsUpgrades); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, createPatientsOwnerIndex); err != nil {
		return fmt.Errorf("create patients owner index: %w", err)
	}
	return nil
}

func (r *RecordRepository) Create(ctx context.Context, record *domain.PatientRecord) (int64, error) {
	record.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO patients (user_id, name, phone, symptoms, created_at)
VALUES (?, ?, ?, ?, ?)`,
		record.OwnerUserID,
		record.Name,
		record.Phone,
		record.Symptoms,
		record.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("insert patient record: owner %d: %w", record.OwnerUserID, repository.ErrMissingReference)
		}
		return 0, fmt.Errorf("insert patient record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("patient record last insert id: %w", err)
	}
	record.ID = id
	return id, nil
}

func (r *RecordRepository) Get(ctx context.Context, id int64) (*domain.PatientRecord, error) {
	row := r.db.QueryRowContext(ctx, selectRecordColumns+` WHERE id = ?`, id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient record %w", repository.ErrNotFound)
		}
		return nil, err
	}
	return record, nil
}

func (r *RecordRepository) List(ctx context.Context) ([]domain.PatientRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectRecordColumns+` ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list patient records: %w", err)
	}
	return collectRecords(rows)
}

func (r *RecordRepository) ListByOwner(ctx context.Context, ownerUserID int64) ([]domain.PatientRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectRecordColumns+` WHERE user_id = ? ORDER BY id DESC`, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("list patient records by owner: %w", err)
	}
	return collectRecords(rows)
}

func (r *RecordRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete patient record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete patient record rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("patient record %w", repository.ErrNotFound)
	}
	return nil
}

func collectRecords(rows *sql.Rows) ([]domain.PatientRecord, error) {
	defer rows.Close()

	records := make([]domain.PatientRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patient records: %w", err)
	}
	return records, nil
}

func scanRecord(row interface {
	Scan(dest ...any) error
}) (*domain.PatientRecord, error) {
	var record domain.PatientRecord
	if err := row.Scan(
		&record.ID,
		&record.OwnerUserID,
		&record.Name,
		&record.Phone,
		&record.Symptoms,
		&record.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan patient record: %w", err)
	}
	return &record, nil
}
