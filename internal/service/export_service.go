package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/export"
	"github.com/andresuchdata/stockwatch/internal/repository"
	"github.com/andresuchdata/stockwatch/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ExportService renders reorder lists, uploads them and records each export.
type ExportService struct {
	inventory *InventoryService
	store     storage.ObjectStorage
	exportLog repository.ExportLogRepository
	prefix    string
	now       func() time.Time
}

// NewExportService builds the service. store and exportLog are optional.
func NewExportService(inventory *InventoryService, store storage.ObjectStorage, exportLog repository.ExportLogRepository, prefix string) *ExportService {
	return &ExportService{
		inventory: inventory,
		store:     store,
		exportLog: exportLog,
		prefix:    prefix,
		now:       time.Now,
	}
}

// ExportResult is a rendered document plus its log record.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
	Record      domain.ExportRecord
}

func (s *ExportService) ExportReorderList(ctx context.Context, filter domain.InventoryFilter, format export.Format) (*ExportResult, error) {
	list, err := s.inventory.GetReorderList(ctx, filter)
	if err != nil {
		return nil, err
	}

	data, err := export.Render(format, list.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to render reorder list: %w", err)
	}

	now := s.now().UTC()
	name := export.FileName(format, now)
	rec := domain.ExportRecord{
		ID:         uuid.NewString(),
		Format:     string(format),
		FileName:   name,
		Items:      list.Summary.Items,
		TotalValue: list.Summary.TotalOrderValueUSD,
		CreatedAt:  now,
	}

	if s.store != nil {
		key := path.Join(s.prefix, now.Format("2006/01/02"), name)
		if err := s.store.UploadObject(ctx, key, data, format.ContentType()); err != nil {
			return nil, fmt.Errorf("failed to upload export: %w", err)
		}
		rec.ObjectKey = key
	}

	if s.exportLog != nil {
		if err := s.exportLog.LogExport(ctx, &rec); err != nil {
			return nil, fmt.Errorf("failed to record export: %w", err)
		}
	}

	log.Info().
		Str("file", name).
		Str("object_key", rec.ObjectKey).
		Int("items", rec.Items).
		Msg("export: reorder list exported")

	return &ExportResult{
		FileName:    name,
		ContentType: format.ContentType(),
		Data:        data,
		Record:      rec,
	}, nil
}

func (s *ExportService) ListExports(ctx context.Context, limit int) ([]domain.ExportRecord, error) {
	if s.exportLog == nil {
		return []domain.ExportRecord{}, nil
	}
	return s.exportLog.ListExports(ctx, limit)
}
