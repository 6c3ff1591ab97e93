package repo

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/atag/internal/domain"
)

// taggedEntityColumns is the column list scanned by scanTaggedEntity.
// Queries alias tagged_entities as te and LEFT JOIN tag_notes as n.
const taggedEntityColumns = `te.id, te.tag_id, te.entity_type, te.entity_key, te.created_by, te.created_at,
	n.id, n.note, n.modified_by, n.modified_at`

// Lookups used by the note operations. Both are bound with te aliasing
// tagged_entities.
const (
	byTaggedEntityID = `te.id = @tagged_entity_id`
	byTagAndEntity   = `te.tag_id = @tag_id AND te.entity_type = @entity_type AND te.entity_key = @entity_key`
)

// TagEntity creates the missing associations between tagIDs and entity in
// a single transaction.
func (r *pgTagRepo) TagEntity(ctx context.Context, tagIDs []uuid.UUID, entity domain.EntityRef, note string, userID int64) error {
	const (
		qExisting = `
			SELECT DISTINCT tag_id
			FROM tagged_entities
			WHERE entity_type = @entity_type
			  AND entity_key  = @entity_key
			  AND tag_id = ANY(@tag_ids::uuid[])`

		qTags = `
			SELECT id
			FROM tags
			WHERE id = ANY(@tag_ids::uuid[])
			ORDER BY id`

		qInsertEntity = `
			INSERT INTO tagged_entities (id, tag_id, entity_type, entity_key, created_by)
			VALUES (@id, @tag_id, @entity_type, @entity_key, @created_by)`

		qInsertNote = `
			INSERT INTO tag_notes (id, tagged_entity_id, note, modified_by)
			VALUES (@id, @tagged_entity_id, @note, @modified_by)`
	)

	requested := dedupe(tagIDs)
	if len(requested) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		existing, err := queryIDs(ctx, tx, qExisting, pgx.NamedArgs{
			"entity_type": entity.Type,
			"entity_key":  entity.Key,
			"tag_ids":     uuidStrings(requested),
		})
		if err != nil {
			return fmt.Errorf("existing: %w", err)
		}

		missing := slices.DeleteFunc(requested, func(id uuid.UUID) bool {
			return slices.Contains(existing, id)
		})
		if len(missing) == 0 {
			return nil
		}

		known, err := queryIDs(ctx, tx, qTags, pgx.NamedArgs{"tag_ids": uuidStrings(missing)})
		if err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		if len(known) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, tagID := range known {
			entityID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate id: %w", err)
			}
			batch.Queue(qInsertEntity, pgx.NamedArgs{
				"id":          entityID,
				"tag_id":      tagID,
				"entity_type": entity.Type,
				"entity_key":  entity.Key,
				"created_by":  userID,
			})
			if note == "" {
				continue
			}
			noteID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate id: %w", err)
			}
			batch.Queue(qInsertNote, pgx.NamedArgs{
				"id":               noteID,
				"tagged_entity_id": entityID,
				"note":             note,
				"modified_by":      userID,
			})
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.TagRepo.TagEntity: %w", err)
	}
	return nil
}

// DeleteTaggedEntity removes every association matching the triple.
// Notes go with them through ON DELETE CASCADE.
func (r *pgTagRepo) DeleteTaggedEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) error {
	const q = `
		DELETE FROM tagged_entities te
		WHERE ` + byTagAndEntity

	if _, err := r.db.Exec(ctx, q, entityArgs(tagID, entity)); err != nil {
		return fmt.Errorf("repo.TagRepo.DeleteTaggedEntity: %w", err)
	}
	return nil
}

// LoadTaggedEntities returns all associations of a tag, newest first.
func (r *pgTagRepo) LoadTaggedEntities(ctx context.Context, tagID uuid.UUID) ([]domain.TaggedEntity, error) {
	const q = `
		SELECT ` + taggedEntityColumns + `
		FROM tagged_entities te
		LEFT JOIN tag_notes n ON n.tagged_entity_id = te.id
		WHERE te.tag_id = @tag_id
		ORDER BY te.id DESC`

	entities, err := r.queryTaggedEntities(ctx, q, pgx.NamedArgs{"tag_id": tagID})
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.LoadTaggedEntities: %w", err)
	}
	return entities, nil
}

// LoadTaggedEntitiesPaged returns one page of a tag's associations, newest first.
func (r *pgTagRepo) LoadTaggedEntitiesPaged(ctx context.Context, tagID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.TaggedEntity], error) {
	const (
		qCount = `
			SELECT count(*)
			FROM tagged_entities
			WHERE tag_id = @tag_id`

		qPage = `
			SELECT ` + taggedEntityColumns + `
			FROM tagged_entities te
			LEFT JOIN tag_notes n ON n.tagged_entity_id = te.id
			WHERE te.tag_id = @tag_id
			ORDER BY te.id DESC
			LIMIT @limit OFFSET @offset`
	)

	var total int64
	if err := r.db.QueryRow(ctx, qCount, pgx.NamedArgs{"tag_id": tagID}).Scan(&total); err != nil {
		return domain.Page[domain.TaggedEntity]{}, fmt.Errorf("repo.TagRepo.LoadTaggedEntitiesPaged: count: %w", err)
	}

	entities, err := r.queryTaggedEntities(ctx, qPage, pgx.NamedArgs{
		"tag_id": tagID,
		"limit":  p.PageSize,
		"offset": p.Offset(),
	})
	if err != nil {
		return domain.Page[domain.TaggedEntity]{}, fmt.Errorf("repo.TagRepo.LoadTaggedEntitiesPaged: %w", err)
	}
	return domain.NewPage(entities, total, p), nil
}

// EditTagNote upserts the note of the tagged entity with the given id.
func (r *pgTagRepo) EditTagNote(ctx context.Context, taggedEntityID uuid.UUID, note string, userID int64) error {
	lookup := fmt.Sprintf("tagged entity %s", taggedEntityID)
	err := r.setNote(ctx, lookup, byTaggedEntityID, pgx.NamedArgs{"tagged_entity_id": taggedEntityID}, note, userID)
	if err != nil {
		return fmt.Errorf("repo.TagRepo.EditTagNote: %w", err)
	}
	return nil
}

// EditTagNoteByEntity upserts the note of the association between tagID and entity.
func (r *pgTagRepo) EditTagNoteByEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef, note string, userID int64) error {
	lookup := fmt.Sprintf("tag %s on %s/%s", tagID, entity.Type, entity.Key)
	err := r.setNote(ctx, lookup, byTagAndEntity, entityArgs(tagID, entity), note, userID)
	if err != nil {
		return fmt.Errorf("repo.TagRepo.EditTagNoteByEntity: %w", err)
	}
	return nil
}

// LoadTagNote returns the note of the tagged entity with the given id.
func (r *pgTagRepo) LoadTagNote(ctx context.Context, taggedEntityID uuid.UUID) (string, bool, error) {
	lookup := fmt.Sprintf("tagged entity %s", taggedEntityID)
	note, ok, err := r.loadNote(ctx, lookup, byTaggedEntityID, pgx.NamedArgs{"tagged_entity_id": taggedEntityID})
	if err != nil {
		return "", false, fmt.Errorf("repo.TagRepo.LoadTagNote: %w", err)
	}
	return note, ok, nil
}

// LoadTagNoteByEntity returns the note of the association between tagID and entity.
func (r *pgTagRepo) LoadTagNoteByEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) (string, bool, error) {
	lookup := fmt.Sprintf("tag %s on %s/%s", tagID, entity.Type, entity.Key)
	note, ok, err := r.loadNote(ctx, lookup, byTagAndEntity, entityArgs(tagID, entity))
	if err != nil {
		return "", false, fmt.Errorf("repo.TagRepo.LoadTagNoteByEntity: %w", err)
	}
	return note, ok, nil
}

// setNote resolves where to exactly one tagged entity and upserts its note.
func (r *pgTagRepo) setNote(ctx context.Context, lookup, where string, args pgx.NamedArgs, note string, userID int64) error {
	const qUpsert = `
		INSERT INTO tag_notes (id, tagged_entity_id, note, modified_by, modified_at)
		VALUES (@id, @tagged_entity_id, @note, @modified_by, now())
		ON CONFLICT (tagged_entity_id) DO UPDATE
		SET note        = EXCLUDED.note,
		    modified_by = EXCLUDED.modified_by,
		    modified_at = EXCLUDED.modified_at`

	qFind := `SELECT te.id FROM tagged_entities te WHERE ` + where

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		ids, err := queryIDs(ctx, tx, qFind, args)
		if err != nil {
			return fmt.Errorf("find: %w", err)
		}
		if len(ids) != 1 {
			return &domain.MatchCountError{Lookup: lookup, Count: len(ids)}
		}

		noteID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		_, err = tx.Exec(ctx, qUpsert, pgx.NamedArgs{
			"id":               noteID,
			"tagged_entity_id": ids[0],
			"note":             note,
			"modified_by":      userID,
		})
		if err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
		return nil
	})
}

// loadNote resolves where to at most one tagged entity and returns its note.
func (r *pgTagRepo) loadNote(ctx context.Context, lookup, where string, args pgx.NamedArgs) (string, bool, error) {
	q := `
		SELECT n.note
		FROM tagged_entities te
		LEFT JOIN tag_notes n ON n.tagged_entity_id = te.id
		WHERE ` + where

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return "", false, err
	}
	notes, err := pgx.CollectRows(rows, pgx.RowTo[pgtype.Text])
	if err != nil {
		return "", false, fmt.Errorf("scan: %w", err)
	}

	switch len(notes) {
	case 0:
		return "", false, nil
	case 1:
		return notes[0].String, notes[0].Valid, nil
	default:
		return "", false, &domain.MatchCountError{Lookup: lookup, Count: len(notes)}
	}
}

// queryTaggedEntities runs a tagged-entities query and collects the rows.
func (r *pgTagRepo) queryTaggedEntities(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.TaggedEntity, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	entities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TaggedEntity, error) {
		return scanTaggedEntity(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return entities, nil
}

// scanTaggedEntity maps a row selected with taggedEntityColumns into a
// domain.TaggedEntity, attaching the note when the LEFT JOIN found one.
func scanTaggedEntity(s scanner) (domain.TaggedEntity, error) {
	var (
		e              domain.TaggedEntity
		id, tagID      pgtype.UUID
		noteID         pgtype.UUID
		noteText       pgtype.Text
		noteModifiedBy pgtype.Int8
		noteModifiedAt pgtype.Timestamptz
	)
	err := s.Scan(
		&id, &tagID, &e.EntityType, &e.EntityKey, &e.CreatedBy, &e.CreatedAt,
		&noteID, &noteText, &noteModifiedBy, &noteModifiedAt,
	)
	if err != nil {
		return domain.TaggedEntity{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.TagID = uuid.UUID(tagID.Bytes)
	if noteID.Valid {
		e.Note = &domain.TagNote{
			ID:             uuid.UUID(noteID.Bytes),
			TaggedEntityID: e.ID,
			Note:           noteText.String,
			ModifiedBy:     noteModifiedBy.Int64,
			ModifiedAt:     noteModifiedAt.Time,
		}
	}
	return e, nil
}

// queryIDs runs a query selecting a single uuid column.
func queryIDs(ctx context.Context, q db, sql string, args pgx.NamedArgs) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (uuid.UUID, error) {
		var id pgtype.UUID
		if err := row.Scan(&id); err != nil {
			return uuid.Nil, err
		}
		return uuid.UUID(id.Bytes), nil
	})
}

// entityArgs binds the parameters of byTagAndEntity.
func entityArgs(tagID uuid.UUID, entity domain.EntityRef) pgx.NamedArgs {
	return pgx.NamedArgs{
		"tag_id":      tagID,
		"entity_type": entity.Type,
		"entity_key":  entity.Key,
	}
}

// dedupe returns ids with duplicates removed, keeping first occurrences.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
