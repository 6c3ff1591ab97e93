package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/atag/internal/domain"
	"github.com/pkordes/atag/internal/repo"
)

// ExportService assembles a flat export of one tag and everything tagged with it.
type ExportService struct {
	tags repo.TagRepo
}

// NewExportService constructs an ExportService backed by the provided TagRepo.
func NewExportService(tags repo.TagRepo) *ExportService {
	return &ExportService{tags: tags}
}

// Export returns one ExportRow per entity tagged with tagID, newest first.
// Returns domain.ErrNotFound when the tag is absent or deleted.
func (s *ExportService) Export(ctx context.Context, tagID uuid.UUID) ([]domain.ExportRow, error) {
	tag, ok, err := s.tags.LoadTag(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("service.ExportService.Export: tag %s: %w", tagID, domain.ErrNotFound)
	}

	entities, err := s.tags.LoadTaggedEntities(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(entities))
	for _, e := range entities {
		row := domain.ExportRow{
			TagID:          tag.ID.String(),
			TagName:        tag.Name,
			OwnerType:      tag.OwnerType,
			OwnerID:        tag.OwnerID,
			TaggedEntityID: e.ID.String(),
			EntityType:     e.EntityType,
			EntityKey:      e.EntityKey,
			TaggedBy:       e.CreatedBy,
			TaggedAt:       e.CreatedAt,
		}
		if e.Note != nil {
			modifiedAt := e.Note.ModifiedAt
			row.Note = e.Note.Note
			row.NoteModifiedAt = &modifiedAt
		}
		rows = append(rows, row)
	}
	return rows, nil
}
