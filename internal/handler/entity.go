package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/atag/internal/domain"
	"github.com/pkordes/atag/internal/service"
)

// TaggedEntity is the API representation of a tag applied to an entity.
type TaggedEntity struct {
	ID         openapi_types.UUID `json:"id"`
	TagID      openapi_types.UUID `json:"tag_id"`
	EntityType string             `json:"entity_type"`
	EntityKey  string             `json:"entity_key"`
	CreatedBy  int64              `json:"created_by"`
	CreatedAt  time.Time          `json:"created_at"`
	Note       *TagNote           `json:"note,omitempty"`
}

// TagNote is the API representation of a note on a tagged entity.
type TagNote struct {
	Note       string    `json:"note"`
	ModifiedBy int64     `json:"modified_by"`
	ModifiedAt time.Time `json:"modified_at"`
}

// TagEntityInput is the request body of POST /entities/{entityType}/{entityKey}/tags.
type TagEntityInput struct {
	TagIDs []openapi_types.UUID `json:"tag_ids"`
	Note   string               `json:"note"`
}

// NoteInput is the request body of the note PUT endpoints.
type NoteInput struct {
	Note string `json:"note"`
}

// NoteResponse is returned by the note GET endpoints.
type NoteResponse struct {
	Note string `json:"note"`
}

// ListTaggedEntities handles GET /tags/{tagId}/entities.
// Entities are returned newest first with their notes attached.
func (s *Server) ListTaggedEntities(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathUUID(w, r, "tagId")
	if !ok {
		return
	}
	params, ok := queryPagination(w, r)
	if !ok {
		return
	}

	page, err := s.tags.LoadTaggedEntitiesPaged(r.Context(), tagID, params)
	if err != nil {
		s.writeServiceError(w, r, "tag not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toPagedResponse(page, taggedEntityToResponse))
}

// ListEntityTags handles GET /entities/{entityType}/{entityKey}/tags.
func (s *Server) ListEntityTags(w http.ResponseWriter, r *http.Request) {
	entity, ok := pathEntity(w, r)
	if !ok {
		return
	}
	filters, ok := queryOwners(w, r)
	if !ok {
		return
	}

	tags, err := s.tags.LoadEntityTags(r.Context(), entity, filters...)
	if err != nil {
		s.writeServiceError(w, r, "entity not found", err)
		return
	}

	resp := make([]Tag, len(tags))
	for i, t := range tags {
		resp[i] = tagToResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// TagEntity handles POST /entities/{entityType}/{entityKey}/tags.
// Tags already applied to the entity are skipped, so the call is idempotent.
func (s *Server) TagEntity(w http.ResponseWriter, r *http.Request) {
	entity, ok := pathEntity(w, r)
	if !ok {
		return
	}
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var body TagEntityInput
	if !decodeBody(w, r, &body) {
		return
	}

	err := s.tags.TagEntity(r.Context(), service.TagEntityRequest{
		TagIDs:     body.TagIDs,
		EntityType: entity.Type,
		EntityKey:  entity.Key,
		Note:       body.Note,
		UserID:     userID,
	})
	if err != nil {
		s.writeServiceError(w, r, "tag not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UntagEntity handles DELETE /entities/{entityType}/{entityKey}/tags/{tagId}.
func (s *Server) UntagEntity(w http.ResponseWriter, r *http.Request) {
	entity, tagID, ok := pathEntityTag(w, r)
	if !ok {
		return
	}
	if _, ok := actingUser(w, r); !ok {
		return
	}

	if err := s.tags.DeleteTaggedEntity(r.Context(), tagID, entity); err != nil {
		s.writeServiceError(w, r, "tag not linked to entity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEntityTagNote handles GET /entities/{entityType}/{entityKey}/tags/{tagId}/note.
func (s *Server) GetEntityTagNote(w http.ResponseWriter, r *http.Request) {
	entity, tagID, ok := pathEntityTag(w, r)
	if !ok {
		return
	}

	note, err := s.tags.LoadTagNoteByEntity(r.Context(), tagID, entity)
	if err != nil {
		s.writeServiceError(w, r, "note not found", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteResponse{Note: note})
}

// EditEntityTagNote handles PUT /entities/{entityType}/{entityKey}/tags/{tagId}/note.
func (s *Server) EditEntityTagNote(w http.ResponseWriter, r *http.Request) {
	entity, tagID, ok := pathEntityTag(w, r)
	if !ok {
		return
	}
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var body NoteInput
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.tags.EditTagNoteByEntity(r.Context(), tagID, entity, body.Note, userID); err != nil {
		s.writeServiceError(w, r, "tag not linked to entity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTagNote handles GET /tagged-entities/{taggedEntityId}/note.
func (s *Server) GetTagNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "taggedEntityId")
	if !ok {
		return
	}

	note, err := s.tags.LoadTagNote(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "note not found", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteResponse{Note: note})
}

// EditTagNote handles PUT /tagged-entities/{taggedEntityId}/note.
func (s *Server) EditTagNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "taggedEntityId")
	if !ok {
		return
	}
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var body NoteInput
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.tags.EditTagNote(r.Context(), id, body.Note, userID); err != nil {
		s.writeServiceError(w, r, "tagged entity not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathEntityTag binds the entity path parameters together with {tagId}.
func pathEntityTag(w http.ResponseWriter, r *http.Request) (domain.EntityRef, uuid.UUID, bool) {
	entity, ok := pathEntity(w, r)
	if !ok {
		return domain.EntityRef{}, uuid.Nil, false
	}
	tagID, ok := pathUUID(w, r, "tagId")
	if !ok {
		return domain.EntityRef{}, uuid.Nil, false
	}
	return entity, tagID, true
}

// taggedEntityToResponse converts a domain.TaggedEntity to its API representation.
func taggedEntityToResponse(e domain.TaggedEntity) TaggedEntity {
	resp := TaggedEntity{
		ID:         e.ID,
		TagID:      e.TagID,
		EntityType: e.EntityType,
		EntityKey:  e.EntityKey,
		CreatedBy:  e.CreatedBy,
		CreatedAt:  e.CreatedAt,
	}
	if e.Note != nil {
		resp.Note = &TagNote{
			Note:       e.Note.Note,
			ModifiedBy: e.Note.ModifiedBy,
			ModifiedAt: e.Note.ModifiedAt,
		}
	}
	return resp
}
