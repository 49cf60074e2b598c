package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"healthline/internal/domain"
	"healthline/internal/repository"
	"healthline/internal/storage"
)

// ExportResult describes an uploaded snapshot of the record store.
type ExportResult struct {
	Key      string
	Location string
	URL      string
	Count    int
}

// ExportService uploads doctor-initiated snapshots of all patient records.
type ExportService interface {
	Export(ctx context.Context, requester domain.Identity) (*ExportResult, error)
	ListExports(ctx context.Context, requester domain.Identity) ([]storage.ObjectInfo, error)
}

type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

type exportService struct {
	records repository.RecordRepository
	storage storage.Service
	cfg     ExportConfig
}

func NewExportService(records repository.RecordRepository, store storage.Service, cfg ExportConfig) ExportService {
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = 15 * time.Minute
	}
	return &exportService{
		records: records,
		storage: store,
		cfg:     cfg,
	}
}

type exportedRecord struct {
	ID          int64  `json:"id"`
	OwnerUserID int64  `json:"userId"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Symptoms    string `json:"symptoms"`
	CreatedAt   string `json:"createdAt"`
}

type exportDocument struct {
	ExportedAt string           `json:"exportedAt"`
	ExportedBy int64            `json:"exportedBy"`
	Records    []exportedRecord `json:"records"`
}

func (s *exportService) enabled() bool {
	return s.storage != nil && strings.TrimSpace(s.cfg.Bucket) != ""
}

func (s *exportService) Export(ctx context.Context, requester domain.Identity) (*ExportResult, error) {
	if !requester.IsDoctor() {
		return nil, fmt.Errorf("%w: only doctors may export records", ErrForbidden)
	}
	if !s.enabled() {
		return nil, ErrStorageDisabled
	}

	records, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := exportDocument{
		ExportedAt: now.Format(time.RFC3339),
		ExportedBy: requester.UserID,
		Records:    make([]exportedRecord, len(records)),
	}
	for i, rec := range records {
		doc.Records[i] = exportedRecord{
			ID:          rec.ID,
			OwnerUserID: rec.OwnerUserID,
			Name:        rec.Name,
			Phone:       rec.Phone,
			Symptoms:    rec.Symptoms,
			CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	name := fmt.Sprintf("records-%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString())
	key, location, err := s.storage.Upload(ctx, name, bytes.NewReader(payload), storage.UploadOptions{
		Bucket:      s.cfg.Bucket,
		KeyPrefix:   s.cfg.KeyPrefix,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	url, err := s.storage.GetObjectURL(ctx, s.cfg.Bucket, key, s.cfg.URLExpiry)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Key:      key,
		Location: location,
		URL:      url,
		Count:    len(records),
	}, nil
}

func (s *exportService) ListExports(ctx context.Context, requester domain.Identity) ([]storage.ObjectInfo, error) {
	if !requester.IsDoctor() {
		return nil, fmt.Errorf("%w: only doctors may list exports", ErrForbidden)
	}
	if !s.enabled() {
		return nil, ErrStorageDisabled
	}
	prefix := strings.Trim(s.cfg.KeyPrefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return s.storage.ListObjects(ctx, s.cfg.Bucket, prefix)
}
