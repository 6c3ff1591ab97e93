// Package service contains the business logic for the ATag API.
// Services validate inputs, normalize them, and orchestrate repo calls.
// No SQL lives here: services depend on the repo interface, not its implementation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/atag/internal/domain"
	"github.com/pkordes/atag/internal/repo"
)

// AddTagRequest carries the fields needed to create a tag.
type AddTagRequest struct {
	Name      string           `json:"name" validate:"required,max=200"`
	OwnerType domain.OwnerType `json:"owner_type" validate:"gte=1"`
	OwnerID   string           `json:"owner_id" validate:"required,max=200"`
	UserID    int64            `json:"-"`
}

// EditTagRequest carries the new name and owner of an existing tag.
type EditTagRequest struct {
	TagID     uuid.UUID        `json:"tag_id" validate:"required"`
	Name      string           `json:"name" validate:"required,max=200"`
	OwnerType domain.OwnerType `json:"owner_type" validate:"gte=1"`
	OwnerID   string           `json:"owner_id" validate:"required,max=200"`
	UserID    int64            `json:"-"`
}

// TagEntityRequest applies one or more tags to an external entity.
type TagEntityRequest struct {
	TagIDs     []uuid.UUID `json:"tag_ids" validate:"required,min=1,dive,required"`
	EntityType string      `json:"entity_type" validate:"required,max=200"`
	EntityKey  string      `json:"entity_key" validate:"required,max=200"`
	Note       string      `json:"note"`
	UserID     int64       `json:"-"`
}

// entityRequest validates an entity reference supplied on its own.
type entityRequest struct {
	EntityType string `json:"entity_type" validate:"required,max=200"`
	EntityKey  string `json:"entity_key" validate:"required,max=200"`
}

// TagService implements business logic for tags, tagged entities and notes.
type TagService struct {
	tags   repo.TagRepo
	logger *slog.Logger
}

// NewTagService constructs a TagService backed by the provided TagRepo.
func NewTagService(tags repo.TagRepo, logger *slog.Logger) *TagService {
	return &TagService{tags: tags, logger: logger}
}

// AddTag validates and persists a new tag, returning its id.
func (s *TagService) AddTag(ctx context.Context, req AddTagRequest) (uuid.UUID, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	if err := validateStruct(req); err != nil {
		return uuid.Nil, fmt.Errorf("service.TagService.AddTag: %w", err)
	}

	id, err := s.tags.AddTag(ctx, domain.NewTag(req.Name, req.OwnerType, req.OwnerID, req.UserID))
	if err != nil {
		return uuid.Nil, fmt.Errorf("service.TagService.AddTag: %w", err)
	}

	s.logger.InfoContext(ctx, "tag added",
		"tag_id", id,
		"name", req.Name,
		"owner_type", req.OwnerType.String(),
		"owner_id", req.OwnerID,
		"user_id", req.UserID,
	)
	return id, nil
}

// EditTag renames and/or re-owns a tag.
func (s *TagService) EditTag(ctx context.Context, req EditTagRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	if err := validateStruct(req); err != nil {
		return fmt.Errorf("service.TagService.EditTag: %w", err)
	}

	err := s.tags.EditTag(ctx, req.TagID, req.Name, req.OwnerID, req.OwnerType, req.UserID)
	if errors.Is(err, domain.ErrDuplicateName) {
		s.logger.WarnContext(ctx, "tag rename rejected: duplicate name",
			"tag_id", req.TagID,
			"name", req.Name,
			"user_id", req.UserID,
		)
	}
	if err != nil {
		return fmt.Errorf("service.TagService.EditTag: %w", err)
	}

	s.logger.InfoContext(ctx, "tag edited",
		"tag_id", req.TagID,
		"name", req.Name,
		"owner_type", req.OwnerType.String(),
		"owner_id", req.OwnerID,
		"user_id", req.UserID,
	)
	return nil
}

// DeleteTag soft-deletes a tag.
func (s *TagService) DeleteTag(ctx context.Context, tagID uuid.UUID, userID int64) error {
	if err := s.tags.DeleteTag(ctx, tagID, userID); err != nil {
		return fmt.Errorf("service.TagService.DeleteTag: %w", err)
	}
	s.logger.InfoContext(ctx, "tag deleted", "tag_id", tagID, "user_id", userID)
	return nil
}

// LoadTag returns a live tag, or domain.ErrNotFound when it is absent or deleted.
func (s *TagService) LoadTag(ctx context.Context, tagID uuid.UUID) (domain.Tag, error) {
	tag, ok, err := s.tags.LoadTag(ctx, tagID)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagService.LoadTag: %w", err)
	}
	if !ok {
		return domain.Tag{}, fmt.Errorf("service.TagService.LoadTag: tag %s: %w", tagID, domain.ErrNotFound)
	}
	return tag, nil
}

// LoadTags returns the live tags of the given owners.
func (s *TagService) LoadTags(ctx context.Context, filters ...domain.OwnerFilter) ([]domain.Tag, error) {
	tags, err := s.tags.LoadTags(ctx, filters...)
	if err != nil {
		return nil, fmt.Errorf("service.TagService.LoadTags: %w", err)
	}
	return tags, nil
}

// LoadTagsPaged returns one page of the live tags of the given owners.
func (s *TagService) LoadTagsPaged(ctx context.Context, p domain.PaginationParams, filters ...domain.OwnerFilter) (domain.Page[domain.Tag], error) {
	page, err := s.tags.LoadTagsPaged(ctx, p, filters...)
	if err != nil {
		return domain.Page[domain.Tag]{}, fmt.Errorf("service.TagService.LoadTagsPaged: %w", err)
	}
	return page, nil
}

// LoadEntityTags returns the live tags applied to entity, scoped by filters.
func (s *TagService) LoadEntityTags(ctx context.Context, entity domain.EntityRef, filters ...domain.OwnerFilter) ([]domain.Tag, error) {
	entity, err := normalizeEntity(entity)
	if err != nil {
		return nil, fmt.Errorf("service.TagService.LoadEntityTags: %w", err)
	}
	tags, err := s.tags.LoadEntityTags(ctx, entity, filters...)
	if err != nil {
		return nil, fmt.Errorf("service.TagService.LoadEntityTags: %w", err)
	}
	return tags, nil
}

// TagEntity applies the requested tags to an entity. Tags already applied
// are left untouched.
func (s *TagService) TagEntity(ctx context.Context, req TagEntityRequest) error {
	req.EntityType = strings.TrimSpace(req.EntityType)
	req.EntityKey = strings.TrimSpace(req.EntityKey)
	if err := validateStruct(req); err != nil {
		return fmt.Errorf("service.TagService.TagEntity: %w", err)
	}

	entity := domain.EntityRef{Type: req.EntityType, Key: req.EntityKey}
	if err := s.tags.TagEntity(ctx, req.TagIDs, entity, req.Note, req.UserID); err != nil {
		return fmt.Errorf("service.TagService.TagEntity: %w", err)
	}

	s.logger.InfoContext(ctx, "entity tagged",
		"entity_type", entity.Type,
		"entity_key", entity.Key,
		"tag_count", len(req.TagIDs),
		"user_id", req.UserID,
	)
	return nil
}

// DeleteTaggedEntity removes a tag from an entity.
func (s *TagService) DeleteTaggedEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) error {
	entity, err := normalizeEntity(entity)
	if err != nil {
		return fmt.Errorf("service.TagService.DeleteTaggedEntity: %w", err)
	}
	if err := s.tags.DeleteTaggedEntity(ctx, tagID, entity); err != nil {
		return fmt.Errorf("service.TagService.DeleteTaggedEntity: %w", err)
	}
	s.logger.InfoContext(ctx, "entity untagged",
		"tag_id", tagID,
		"entity_type", entity.Type,
		"entity_key", entity.Key,
	)
	return nil
}

// LoadTaggedEntities returns every association of a tag, newest first.
func (s *TagService) LoadTaggedEntities(ctx context.Context, tagID uuid.UUID) ([]domain.TaggedEntity, error) {
	entities, err := s.tags.LoadTaggedEntities(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("service.TagService.LoadTaggedEntities: %w", err)
	}
	return entities, nil
}

// LoadTaggedEntitiesPaged returns one page of a tag's associations.
func (s *TagService) LoadTaggedEntitiesPaged(ctx context.Context, tagID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.TaggedEntity], error) {
	page, err := s.tags.LoadTaggedEntitiesPaged(ctx, tagID, p)
	if err != nil {
		return domain.Page[domain.TaggedEntity]{}, fmt.Errorf("service.TagService.LoadTaggedEntitiesPaged: %w", err)
	}
	return page, nil
}

// EditTagNote sets the note of a tagged entity identified by id.
func (s *TagService) EditTagNote(ctx context.Context, taggedEntityID uuid.UUID, note string, userID int64) error {
	if err := s.tags.EditTagNote(ctx, taggedEntityID, note, userID); err != nil {
		return fmt.Errorf("service.TagService.EditTagNote: %w", err)
	}
	s.logger.InfoContext(ctx, "tag note edited", "tagged_entity_id", taggedEntityID, "user_id", userID)
	return nil
}

// EditTagNoteByEntity sets the note of the association between a tag and an entity.
func (s *TagService) EditTagNoteByEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef, note string, userID int64) error {
	entity, err := normalizeEntity(entity)
	if err != nil {
		return fmt.Errorf("service.TagService.EditTagNoteByEntity: %w", err)
	}
	if err := s.tags.EditTagNoteByEntity(ctx, tagID, entity, note, userID); err != nil {
		return fmt.Errorf("service.TagService.EditTagNoteByEntity: %w", err)
	}
	s.logger.InfoContext(ctx, "tag note edited",
		"tag_id", tagID,
		"entity_type", entity.Type,
		"entity_key", entity.Key,
		"user_id", userID,
	)
	return nil
}

// LoadTagNote returns the note of a tagged entity, or domain.ErrNotFound
// when the tagged entity does not exist or has no note.
func (s *TagService) LoadTagNote(ctx context.Context, taggedEntityID uuid.UUID) (string, error) {
	note, ok, err := s.tags.LoadTagNote(ctx, taggedEntityID)
	if err != nil {
		return "", fmt.Errorf("service.TagService.LoadTagNote: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("service.TagService.LoadTagNote: tagged entity %s: %w", taggedEntityID, domain.ErrNotFound)
	}
	return note, nil
}

// LoadTagNoteByEntity returns the note of the association between a tag and
// an entity, or domain.ErrNotFound when there is none.
func (s *TagService) LoadTagNoteByEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) (string, error) {
	entity, err := normalizeEntity(entity)
	if err != nil {
		return "", fmt.Errorf("service.TagService.LoadTagNoteByEntity: %w", err)
	}
	note, ok, err := s.tags.LoadTagNoteByEntity(ctx, tagID, entity)
	if err != nil {
		return "", fmt.Errorf("service.TagService.LoadTagNoteByEntity: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("service.TagService.LoadTagNoteByEntity: %w", domain.ErrNotFound)
	}
	return note, nil
}

// normalizeEntity trims and validates an entity reference.
func normalizeEntity(entity domain.EntityRef) (domain.EntityRef, error) {
	req := entityRequest{
		EntityType: strings.TrimSpace(entity.Type),
		EntityKey:  strings.TrimSpace(entity.Key),
	}
	if err := validateStruct(req); err != nil {
		return domain.EntityRef{}, err
	}
	return domain.EntityRef{Type: req.EntityType, Key: req.EntityKey}, nil
}
