package repo

import (
	"github.com/jackc/pgx/v5"

	"github.com/pkordes/atag/internal/domain"
)

// tagColumns is the column list scanned by scanTag. Queries alias tags as t.
const tagColumns = `t.id, t.name, t.owner_type, t.owner_id,
	t.created_by, t.created_at, t.modified_by, t.modified_at,
	t.is_deleted, t.deleted_by, t.deleted_at`

// activeTagScope restricts a tags query (aliased t) to live tags belonging to
// any of the owners bound by ownerScope. Every tag read path goes through it,
// so soft-deleted tags can never leak into a result.
//
// An empty owner list matches every owner.
const activeTagScope = `NOT t.is_deleted
	AND (cardinality(@owner_types::integer[]) = 0
	     OR (t.owner_type, t.owner_id) IN (
	         SELECT o.owner_type, o.owner_id
	         FROM unnest(@owner_types::integer[], @owner_ids::text[]) AS o (owner_type, owner_id)))`

// ownerScope binds the parameters used by activeTagScope into args and
// returns it. Both slices are always non-nil: pgx encodes a nil slice as
// NULL, and cardinality(NULL) would silently exclude every row.
func ownerScope(args pgx.NamedArgs, filters []domain.OwnerFilter) pgx.NamedArgs {
	types := make([]int32, 0, len(filters))
	ids := make([]string, 0, len(filters))
	for _, f := range filters {
		types = append(types, int32(f.OwnerType))
		ids = append(ids, f.OwnerID)
	}
	if args == nil {
		args = pgx.NamedArgs{}
	}
	args["owner_types"] = types
	args["owner_ids"] = ids
	return args
}
