package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/atag/internal/domain"
	"github.com/pkordes/atag/internal/service"
)

// Tag is the API representation of a live tag.
type Tag struct {
	ID         openapi_types.UUID `json:"id"`
	Name       string             `json:"name"`
	OwnerType  int                `json:"owner_type"`
	OwnerID    string             `json:"owner_id"`
	CreatedBy  int64              `json:"created_by"`
	CreatedAt  time.Time          `json:"created_at"`
	ModifiedBy *int64             `json:"modified_by,omitempty"`
	ModifiedAt *time.Time         `json:"modified_at,omitempty"`
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// PagedResponse wraps one page of results.
type PagedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TagInput is the request body of POST /tags and PUT /tags/{tagId}.
type TagInput struct {
	Name      string `json:"name"`
	OwnerType int    `json:"owner_type"`
	OwnerID   string `json:"owner_id"`
}

// CreatedResponse is returned by endpoints that create a resource.
type CreatedResponse struct {
	ID openapi_types.UUID `json:"id"`
}

// ListTags handles GET /tags.
// The repeatable ?owner=<type>:<id> parameter restricts results to those owners.
func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	filters, ok := queryOwners(w, r)
	if !ok {
		return
	}
	params, ok := queryPagination(w, r)
	if !ok {
		return
	}

	page, err := s.tags.LoadTagsPaged(r.Context(), params, filters...)
	if err != nil {
		s.writeServiceError(w, r, "tags not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toPagedResponse(page, tagToResponse))
}

// AddTag handles POST /tags.
func (s *Server) AddTag(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var body TagInput
	if !decodeBody(w, r, &body) {
		return
	}

	id, err := s.tags.AddTag(r.Context(), service.AddTagRequest{
		Name:      body.Name,
		OwnerType: domain.OwnerType(body.OwnerType),
		OwnerID:   body.OwnerID,
		UserID:    userID,
	})
	if err != nil {
		s.writeServiceError(w, r, "tag not found", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// GetTag handles GET /tags/{tagId}.
func (s *Server) GetTag(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathUUID(w, r, "tagId")
	if !ok {
		return
	}

	tag, err := s.tags.LoadTag(r.Context(), tagID)
	if err != nil {
		s.writeServiceError(w, r, "tag not found", err)
		return
	}
	writeJSON(w, http.StatusOK, tagToResponse(tag))
}

// EditTag handles PUT /tags/{tagId}. Editing an absent tag succeeds without effect.
func (s *Server) EditTag(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathUUID(w, r, "tagId")
	if !ok {
		return
	}
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var body TagInput
	if !decodeBody(w, r, &body) {
		return
	}

	err := s.tags.EditTag(r.Context(), service.EditTagRequest{
		TagID:     tagID,
		Name:      body.Name,
		OwnerType: domain.OwnerType(body.OwnerType),
		OwnerID:   body.OwnerID,
		UserID:    userID,
	})
	if err != nil {
		s.writeServiceError(w, r, "tag not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTag handles DELETE /tags/{tagId}.
func (s *Server) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathUUID(w, r, "tagId")
	if !ok {
		return
	}
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	if err := s.tags.DeleteTag(r.Context(), tagID, userID); err != nil {
		s.writeServiceError(w, r, "tag not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tagToResponse converts a domain.Tag to its API representation.
func tagToResponse(t domain.Tag) Tag {
	return Tag{
		ID:         t.ID,
		Name:       t.Name,
		OwnerType:  int(t.OwnerType),
		OwnerID:    t.OwnerID,
		CreatedBy:  t.CreatedBy,
		CreatedAt:  t.CreatedAt,
		ModifiedBy: t.ModifiedBy,
		ModifiedAt: t.ModifiedAt,
	}
}

// toPagedResponse converts a domain page using convert for each result.
func toPagedResponse[T, R any](p domain.Page[T], convert func(T) R) PagedResponse[R] {
	data := make([]R, len(p.Results))
	for i, v := range p.Results {
		data[i] = convert(v)
	}
	return PagedResponse[R]{
		Data: data,
		Pagination: Pagination{
			Page:     p.PageIndex,
			PageSize: p.PageSize,
			Total:    p.TotalCount,
		},
	}
}
