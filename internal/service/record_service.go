package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"healthline/internal/domain"
	"healthline/internal/repository"
)

// CreateRecordInput carries the fields of a new patient record.
type CreateRecordInput struct {
	Name        string
	Phone       string
	Symptoms    string
	OwnerUserID int64
}

// RecordService applies role-based visibility on top of the record store.
type RecordService interface {
	CreateRecord(ctx context.Context, input CreateRecordInput) (*domain.PatientRecord, error)
	ListRecords(ctx context.Context, requesterUserID int64, requesterRole domain.Role) ([]domain.PatientRecord, error)
	GetRecord(ctx context.Context, requester domain.Identity, id int64) (*domain.PatientRecord, error)
	DeleteRecord(ctx context.Context, requester domain.Identity, id int64) error
}

type recordService struct {
	records repository.RecordRepository
}

func NewRecordService(records repository.RecordRepository) RecordService {
	return &recordService{records: records}
}

// ResolveOwner decides who owns a record the requester is creating.
// Doctors may file on behalf of any user; patients only for themselves.
func ResolveOwner(requester domain.Identity, requestedOwner int64) (int64, error) {
	if requester.UserID <= 0 || !requester.Role.Valid() {
		return 0, ErrUnauthorized
	}
	if requestedOwner == 0 || requestedOwner == requester.UserID {
		return requester.UserID, nil
	}
	if requester.IsDoctor() {
		return requestedOwner, nil
	}
	return 0, fmt.Errorf("%w: patients may only create their own records", ErrForbidden)
}

func (s *recordService) CreateRecord(ctx context.Context, input CreateRecordInput) (*domain.PatientRecord, error) {
	name := strings.TrimSpace(input.Name)
	symptoms := strings.TrimSpace(input.Symptoms)
	if name == "" || symptoms == "" {
		return nil, validationError("name and symptoms are required")
	}
	if input.OwnerUserID <= 0 {
		return nil, validationError("owner user id is required")
	}

	record := &domain.PatientRecord{
		OwnerUserID: input.OwnerUserID,
		Name:        name,
		Phone:       strings.TrimSpace(input.Phone),
		Symptoms:    symptoms,
	}
	if _, err := s.records.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, validationError(fmt.Sprintf("owner user %d does not exist", input.OwnerUserID))
		}
		return nil, err
	}
	return record, nil
}

func (s *recordService) ListRecords(ctx context.Context, requesterUserID int64, requesterRole domain.Role) ([]domain.PatientRecord, error) {
	switch requesterRole {
	case domain.RoleDoctor:
		return s.records.List(ctx)
	case domain.RolePatient:
		return s.records.ListByOwner(ctx, requesterUserID)
	default:
		return nil, validationError(fmt.Sprintf("unknown role %q", requesterRole))
	}
}

func (s *recordService) GetRecord(ctx context.Context, requester domain.Identity, id int64) (*domain.PatientRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: patient record %d", ErrNotFound, id)
		}
		return nil, err
	}
	// records owned by someone else are reported as missing
	if !record.VisibleTo(requester) {
		return nil, fmt.Errorf("%w: patient record %d", ErrNotFound, id)
	}
	return record, nil
}

func (s *recordService) DeleteRecord(ctx context.Context, requester domain.Identity, id int64) error {
	if _, err := s.GetRecord(ctx, requester, id); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: patient record %d", ErrNotFound, id)
		}
		return err
	}
	return nil
}
