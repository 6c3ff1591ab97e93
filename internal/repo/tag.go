package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/atag/internal/domain"
)

// TagRepo defines the persistence operations for tags, tagged entities and
// tag notes. Mutating methods commit exactly once; read methods never write.
type TagRepo interface {
	// AddTag inserts a new tag and returns its generated id.
	// Name uniqueness is not checked here; only EditTag enforces it.
	AddTag(ctx context.Context, tag domain.Tag) (uuid.UUID, error)

	// EditTag renames and/or re-owns a tag, soft-deleted or not. It is a
	// no-op when the tag does not exist. Returns domain.ErrDuplicateName when
	// another live tag of the tag's current owner already uses name.
	EditTag(ctx context.Context, tagID uuid.UUID, name, ownerID string, ownerType domain.OwnerType, userID int64) error

	// DeleteTag soft-deletes a tag. Its tagged entities are left in place.
	// It is a no-op when the tag does not exist. Deleting a deleted tag
	// stamps deleted_by and deleted_at again.
	DeleteTag(ctx context.Context, tagID uuid.UUID, userID int64) error

	// LoadTag returns a live tag by id. The bool is false when the tag does
	// not exist or has been soft-deleted.
	LoadTag(ctx context.Context, tagID uuid.UUID) (domain.Tag, bool, error)

	// LoadTags returns every live tag owned by any of filters (all owners
	// when filters is empty), ordered by id.
	LoadTags(ctx context.Context, filters ...domain.OwnerFilter) ([]domain.Tag, error)

	// LoadTagsPaged returns one page of LoadTags and the total count.
	LoadTagsPaged(ctx context.Context, p domain.PaginationParams, filters ...domain.OwnerFilter) (domain.Page[domain.Tag], error)

	// LoadEntityTags returns the live tags, scoped by filters, that are
	// applied to entity.
	LoadEntityTags(ctx context.Context, entity domain.EntityRef, filters ...domain.OwnerFilter) ([]domain.Tag, error)

	// TagEntity applies each tag in tagIDs to entity. Tags already applied to
	// the entity are skipped and keep their existing note; each new
	// association gets note. Unknown tag ids are ignored; soft-deleted tags are
	// still applied.
	TagEntity(ctx context.Context, tagIDs []uuid.UUID, entity domain.EntityRef, note string, userID int64) error

	// DeleteTaggedEntity removes the association between a tag and entity,
	// together with its note. It is a no-op when no association exists.
	DeleteTaggedEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) error

	// LoadTaggedEntities returns every association of a tag with its note
	// attached, most recent first. Soft-deleted tags still return theirs.
	LoadTaggedEntities(ctx context.Context, tagID uuid.UUID) ([]domain.TaggedEntity, error)

	// LoadTaggedEntitiesPaged returns one page of LoadTaggedEntities and the total count.
	LoadTaggedEntitiesPaged(ctx context.Context, tagID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.TaggedEntity], error)

	// EditTagNote creates or replaces the note of a tagged entity.
	// Returns a *domain.MatchCountError when the id matches nothing.
	EditTagNote(ctx context.Context, taggedEntityID uuid.UUID, note string, userID int64) error

	// EditTagNoteByEntity creates or replaces the note of the association
	// between tagID and entity. Returns a *domain.MatchCountError unless
	// exactly one association matches.
	EditTagNoteByEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef, note string, userID int64) error

	// LoadTagNote returns the note of a tagged entity. The bool is false
	// when the tagged entity does not exist or has no note.
	LoadTagNote(ctx context.Context, taggedEntityID uuid.UUID) (string, bool, error)

	// LoadTagNoteByEntity returns the note of the association between tagID
	// and entity. Returns a *domain.MatchCountError when several match.
	LoadTagNoteByEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) (string, bool, error)
}

// pgTagRepo is the Postgres implementation of TagRepo.
type pgTagRepo struct {
	db db
}

// NewTagRepo constructs a TagRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTagRepo(db db) TagRepo {
	return &pgTagRepo{db: db}
}

// AddTag inserts a new tag row with a freshly generated time-ordered id.
func (r *pgTagRepo) AddTag(ctx context.Context, tag domain.Tag) (uuid.UUID, error) {
	const q = `
		INSERT INTO tags (id, name, owner_type, owner_id, created_by)
		VALUES (@id, @name, @owner_type, @owner_id, @created_by)`

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repo.TagRepo.AddTag: generate id: %w", err)
	}

	args := pgx.NamedArgs{
		"id":         id,
		"name":       tag.Name,
		"owner_type": int32(tag.OwnerType),
		"owner_id":   tag.OwnerID,
		"created_by": tag.CreatedBy,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return uuid.Nil, fmt.Errorf("repo.TagRepo.AddTag: %w", err)
	}
	return id, nil
}

// EditTag checks name uniqueness against the tag's current owner, then
// applies the new name and owner. The check and the update share one
// transaction but take no locks, so two concurrent renames can still race.
func (r *pgTagRepo) EditTag(ctx context.Context, tagID uuid.UUID, name, ownerID string, ownerType domain.OwnerType, userID int64) error {
	const (
		qLoad = `
			SELECT owner_type, owner_id
			FROM tags
			WHERE id = @id`

		qDuplicate = `
			SELECT EXISTS (
				SELECT 1 FROM tags
				WHERE owner_type = @owner_type
				  AND owner_id   = @owner_id
				  AND name       = @name
				  AND id        <> @id
				  AND NOT is_deleted)`

		qUpdate = `
			UPDATE tags
			SET name        = @name,
			    owner_type  = @owner_type,
			    owner_id    = @owner_id,
			    modified_by = @modified_by,
			    modified_at = now()
			WHERE id = @id`
	)

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var (
			curType int32
			curID   string
		)
		err := tx.QueryRow(ctx, qLoad, pgx.NamedArgs{"id": tagID}).Scan(&curType, &curID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}

		var exists bool
		err = tx.QueryRow(ctx, qDuplicate, pgx.NamedArgs{
			"owner_type": curType,
			"owner_id":   curID,
			"name":       name,
			"id":         tagID,
		}).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check name: %w", err)
		}
		if exists {
			return domain.ErrDuplicateName
		}

		_, err = tx.Exec(ctx, qUpdate, pgx.NamedArgs{
			"id":          tagID,
			"name":        name,
			"owner_type":  int32(ownerType),
			"owner_id":    ownerID,
			"modified_by": userID,
		})
		if err != nil {
			return fmt.Errorf("update: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.TagRepo.EditTag: %w", err)
	}
	return nil
}

// DeleteTag marks a tag deleted. Zero affected rows means the tag is
// absent, which is not an error.
func (r *pgTagRepo) DeleteTag(ctx context.Context, tagID uuid.UUID, userID int64) error {
	const q = `
		UPDATE tags
		SET is_deleted = true,
		    deleted_by = @deleted_by,
		    deleted_at = now()
		WHERE id = @id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": tagID, "deleted_by": userID}); err != nil {
		return fmt.Errorf("repo.TagRepo.DeleteTag: %w", err)
	}
	return nil
}

// LoadTag retrieves a live tag by primary key.
func (r *pgTagRepo) LoadTag(ctx context.Context, tagID uuid.UUID) (domain.Tag, bool, error) {
	const q = `
		SELECT ` + tagColumns + `
		FROM tags t
		WHERE t.id = @id AND NOT t.is_deleted`

	tag, err := scanTag(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": tagID}))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Tag{}, false, nil
	}
	if err != nil {
		return domain.Tag{}, false, fmt.Errorf("repo.TagRepo.LoadTag: %w", err)
	}
	return tag, true, nil
}

// LoadTags returns the live tags of the given owners ordered by id.
func (r *pgTagRepo) LoadTags(ctx context.Context, filters ...domain.OwnerFilter) ([]domain.Tag, error) {
	const q = `
		SELECT ` + tagColumns + `
		FROM tags t
		WHERE ` + activeTagScope + `
		ORDER BY t.id`

	tags, err := r.queryTags(ctx, q, ownerScope(nil, filters))
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.LoadTags: %w", err)
	}
	return tags, nil
}

// LoadTagsPaged returns one page of the live tags of the given owners.
// Ordering by id keeps pages stable while new tags are added.
func (r *pgTagRepo) LoadTagsPaged(ctx context.Context, p domain.PaginationParams, filters ...domain.OwnerFilter) (domain.Page[domain.Tag], error) {
	const (
		qCount = `
			SELECT count(*)
			FROM tags t
			WHERE ` + activeTagScope

		qPage = `
			SELECT ` + tagColumns + `
			FROM tags t
			WHERE ` + activeTagScope + `
			ORDER BY t.id
			LIMIT @limit OFFSET @offset`
	)

	var total int64
	if err := r.db.QueryRow(ctx, qCount, ownerScope(nil, filters)).Scan(&total); err != nil {
		return domain.Page[domain.Tag]{}, fmt.Errorf("repo.TagRepo.LoadTagsPaged: count: %w", err)
	}

	args := ownerScope(pgx.NamedArgs{"limit": p.PageSize, "offset": p.Offset()}, filters)
	tags, err := r.queryTags(ctx, qPage, args)
	if err != nil {
		return domain.Page[domain.Tag]{}, fmt.Errorf("repo.TagRepo.LoadTagsPaged: %w", err)
	}
	return domain.NewPage(tags, total, p), nil
}

// LoadEntityTags returns the live tags of the given owners applied to entity.
func (r *pgTagRepo) LoadEntityTags(ctx context.Context, entity domain.EntityRef, filters ...domain.OwnerFilter) ([]domain.Tag, error) {
	const q = `
		SELECT ` + tagColumns + `
		FROM tags t
		WHERE ` + activeTagScope + `
		  AND EXISTS (
		      SELECT 1 FROM tagged_entities te
		      WHERE te.tag_id      = t.id
		        AND te.entity_type = @entity_type
		        AND te.entity_key  = @entity_key)
		ORDER BY t.id`

	args := ownerScope(pgx.NamedArgs{
		"entity_type": entity.Type,
		"entity_key":  entity.Key,
	}, filters)
	tags, err := r.queryTags(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.LoadEntityTags: %w", err)
	}
	return tags, nil
}

// queryTags runs a tags query and collects the rows. The result is never nil.
func (r *pgTagRepo) queryTags(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Tag, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	tags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Tag, error) {
		return scanTag(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return tags, nil
}

// scanTag maps a single row selected with tagColumns into a domain.Tag.
func scanTag(s scanner) (domain.Tag, error) {
	var (
		t          domain.Tag
		id         pgtype.UUID
		ownerType  int32
		modifiedBy pgtype.Int8
		modifiedAt pgtype.Timestamptz
		deletedBy  pgtype.Int8
		deletedAt  pgtype.Timestamptz
	)
	err := s.Scan(
		&id, &t.Name, &ownerType, &t.OwnerID,
		&t.CreatedBy, &t.CreatedAt, &modifiedBy, &modifiedAt,
		&t.IsDeleted, &deletedBy, &deletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, domain.ErrNotFound
		}
		return domain.Tag{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.OwnerType = domain.OwnerType(ownerType)
	t.ModifiedBy = int8Ptr(modifiedBy)
	t.ModifiedAt = timePtr(modifiedAt)
	t.DeletedBy = int8Ptr(deletedBy)
	t.DeletedAt = timePtr(deletedAt)
	return t, nil
}
