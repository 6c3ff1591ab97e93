package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/atag/internal/domain"
	"github.com/pkordes/atag/internal/handler"
	"github.com/pkordes/atag/internal/middleware"
	"github.com/pkordes/atag/internal/service"
)

// ---- mock TagServicer -------------------------------------------------------

type mockTagServicer struct {
	addTag                  func(ctx context.Context, req service.AddTagRequest) (uuid.UUID, error)
	editTag                 func(ctx context.Context, req service.EditTagRequest) error
	deleteTag               func(ctx context.Context, tagID uuid.UUID, userID int64) error
	loadTag                 func(ctx context.Context, tagID uuid.UUID) (domain.Tag, error)
	loadTagsPaged           func(ctx context.Context, p domain.PaginationParams, filters ...domain.OwnerFilter) (domain.Page[domain.Tag], error)
	loadEntityTags          func(ctx context.Context, entity domain.EntityRef, filters ...domain.OwnerFilter) ([]domain.Tag, error)
	tagEntity               func(ctx context.Context, req service.TagEntityRequest) error
	deleteTaggedEntity      func(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) error
	loadTaggedEntitiesPaged func(ctx context.Context, tagID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.TaggedEntity], error)
	editTagNote             func(ctx context.Context, taggedEntityID uuid.UUID, note string, userID int64) error
	editTagNoteByEntity     func(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef, note string, userID int64) error
	loadTagNote             func(ctx context.Context, taggedEntityID uuid.UUID) (string, error)
	loadTagNoteByEntity     func(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) (string, error)
}

func (m *mockTagServicer) AddTag(ctx context.Context, req service.AddTagRequest) (uuid.UUID, error) {
	return m.addTag(ctx, req)
}
func (m *mockTagServicer) EditTag(ctx context.Context, req service.EditTagRequest) error {
	return m.editTag(ctx, req)
}
func (m *mockTagServicer) DeleteTag(ctx context.Context, tagID uuid.UUID, userID int64) error {
	return m.deleteTag(ctx, tagID, userID)
}
func (m *mockTagServicer) LoadTag(ctx context.Context, tagID uuid.UUID) (domain.Tag, error) {
	return m.loadTag(ctx, tagID)
}
func (m *mockTagServicer) LoadTagsPaged(ctx context.Context, p domain.PaginationParams, filters ...domain.OwnerFilter) (domain.Page[domain.Tag], error) {
	return m.loadTagsPaged(ctx, p, filters...)
}
func (m *mockTagServicer) LoadEntityTags(ctx context.Context, entity domain.EntityRef, filters ...domain.OwnerFilter) ([]domain.Tag, error) {
	return m.loadEntityTags(ctx, entity, filters...)
}
func (m *mockTagServicer) TagEntity(ctx context.Context, req service.TagEntityRequest) error {
	return m.tagEntity(ctx, req)
}
func (m *mockTagServicer) DeleteTaggedEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) error {
	return m.deleteTaggedEntity(ctx, tagID, entity)
}
func (m *mockTagServicer) LoadTaggedEntitiesPaged(ctx context.Context, tagID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.TaggedEntity], error) {
	return m.loadTaggedEntitiesPaged(ctx, tagID, p)
}
func (m *mockTagServicer) EditTagNote(ctx context.Context, taggedEntityID uuid.UUID, note string, userID int64) error {
	return m.editTagNote(ctx, taggedEntityID, note, userID)
}
func (m *mockTagServicer) EditTagNoteByEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef, note string, userID int64) error {
	return m.editTagNoteByEntity(ctx, tagID, entity, note, userID)
}
func (m *mockTagServicer) LoadTagNote(ctx context.Context, taggedEntityID uuid.UUID) (string, error) {
	return m.loadTagNote(ctx, taggedEntityID)
}
func (m *mockTagServicer) LoadTagNoteByEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) (string, error) {
	return m.loadTagNoteByEntity(ctx, tagID, entity)
}

// compile-time check: mockTagServicer must satisfy handler.TagServicer.
var _ handler.TagServicer = (*mockTagServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newTagHTTPHandler wires a Server with the tag service mock behind the
// acting-user middleware, as main.go does.
func newTagHTTPHandler(tagSvc handler.TagServicer) http.Handler {
	srv := handler.NewServer(tagSvc, nil, nil)
	return middleware.NewActingUser()(srv.Routes())
}

// do sends a request with an optional JSON body and acting user (0 = none).
func do(h http.Handler, method, target, body string, userID int64) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set(middleware.UserIDHeader, fmt.Sprint(userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

func tagFixture() domain.Tag {
	return domain.Tag{
		ID:        uuid.New(),
		Name:      "Procurement",
		OwnerType: domain.OwnerTeam,
		OwnerID:   "2",
		CreatedBy: 1,
		CreatedAt: time.Now().UTC(),
	}
}

// ---- GET /tags -------------------------------------------------------------

func TestListTags_200(t *testing.T) {
	tags := []domain.Tag{tagFixture(), tagFixture()}
	svc := &mockTagServicer{
		loadTagsPaged: func(_ context.Context, p domain.PaginationParams, filters ...domain.OwnerFilter) (domain.Page[domain.Tag], error) {
			assert.Empty(t, filters)
			assert.Equal(t, 1, p.PageIndex)
			assert.Equal(t, 20, p.PageSize)
			return domain.NewPage(tags, 2, p), nil
		},
	}

	rec := do(newTagHTTPHandler(svc), http.MethodGet, "/tags", "", 0)

	require.Equal(t, http.StatusOK, rec.Code)
	var body handler.PagedResponse[handler.Tag]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, int64(2), body.Pagination.Total)
	assert.Equal(t, "Procurement", body.Data[0].Name)
}

func TestListTags_OwnerFiltersAndPaging(t *testing.T) {
	var (
		gotFilters []domain.OwnerFilter
		gotParams  domain.PaginationParams
	)
	svc := &mockTagServicer{
		loadTagsPaged: func(_ context.Context, p domain.PaginationParams, filters ...domain.OwnerFilter) (domain.Page[domain.Tag], error) {
			gotParams, gotFilters = p, filters
			return domain.NewPage[domain.Tag](nil, 0, p), nil
		},
	}

	rec := do(newTagHTTPHandler(svc), http.MethodGet, "/tags?owner=2:team-7&owner=personal:42&page=3&page_size=500", "", 0)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.OwnerFilter{
		domain.FilterByOwner(domain.OwnerTeam, "team-7"),
		domain.FilterByOwner(domain.OwnerPersonal, "42"),
	}, gotFilters)
	assert.Equal(t, 3, gotParams.PageIndex)
	assert.Equal(t, 100, gotParams.PageSize, "page size is capped")
}

func TestListTags_400_BadOwner(t *testing.T) {
	for _, owner := range []string{"nocolon", "x:1", "0:1", "2:"} {
		t.Run(owner, func(t *testing.T) {
			rec := do(newTagHTTPHandler(&mockTagServicer{}), http.MethodGet, "/tags?owner="+owner, "", 0)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "bad_request", errorCode(t, rec))
		})
	}
}

func TestListTags_400_BadPage(t *testing.T) {
	rec := do(newTagHTTPHandler(&mockTagServicer{}), http.MethodGet, "/tags?page=abc", "", 0)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- POST /tags ------------------------------------------------------------

func TestAddTag_201(t *testing.T) {
	id := uuid.New()
	var got service.AddTagRequest
	svc := &mockTagServicer{
		addTag: func(_ context.Context, req service.AddTagRequest) (uuid.UUID, error) {
			got = req
			return id, nil
		},
	}

	rec := do(newTagHTTPHandler(svc), http.MethodPost, "/tags",
		`{"name":"Procurement","owner_type":2,"owner_id":"2"}`, 7)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body handler.CreatedResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, id, body.ID)
	assert.Equal(t, service.AddTagRequest{Name: "Procurement", OwnerType: domain.OwnerTeam, OwnerID: "2", UserID: 7}, got)
}

func TestAddTag_400_MissingUser(t *testing.T) {
	rec := do(newTagHTTPHandler(&mockTagServicer{}), http.MethodPost, "/tags", `{"name":"x","owner_type":1,"owner_id":"1"}`, 0)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", errorCode(t, rec))
}

func TestAddTag_400_MalformedBody(t *testing.T) {
	rec := do(newTagHTTPHandler(&mockTagServicer{}), http.MethodPost, "/tags", `{"name":`, 1)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddTag_422(t *testing.T) {
	svc := &mockTagServicer{
		addTag: func(context.Context, service.AddTagRequest) (uuid.UUID, error) {
			return uuid.Nil, fmt.Errorf("service.TagService.AddTag: %w: name is required", domain.ErrValidation)
		},
	}

	rec := do(newTagHTTPHandler(svc), http.MethodPost, "/tags", `{"name":"","owner_type":1,"owner_id":"1"}`, 1)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "name is required", body.Error.Message)
}

func TestAddTag_500_HidesCause(t *testing.T) {
	svc := &mockTagServicer{
		addTag: func(context.Context, service.AddTagRequest) (uuid.UUID, error) {
			return uuid.Nil, fmt.Errorf("dial tcp: connection refused")
		},
	}

	rec := do(newTagHTTPHandler(svc), http.MethodPost, "/tags", `{"name":"x","owner_type":1,"owner_id":"1"}`, 1)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

// ---- GET /tags/{tagId} -----------------------------------------------------

func TestGetTag_200(t *testing.T) {
	tag := tagFixture()
	svc := &mockTagServicer{
		loadTag: func(_ context.Context, id uuid.UUID) (domain.Tag, error) {
			assert.Equal(t, tag.ID, id)
			return tag, nil
		},
	}

	rec := do(newTagHTTPHandler(svc), http.MethodGet, "/tags/"+tag.ID.String(), "", 0)

	require.Equal(t, http.StatusOK, rec.Code)
	var body handler.Tag
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, tag.ID, body.ID)
	assert.Equal(t, 2, body.OwnerType)
}

func TestGetTag_404(t *testing.T) {
	svc := &mockTagServicer{
		loadTag: func(context.Context, uuid.UUID) (domain.Tag, error) {
			return domain.Tag{}, fmt.Errorf("wrap: %w", domain.ErrNotFound)
		},
	}

	rec := do(newTagHTTPHandler(svc), http.MethodGet, "/tags/"+uuid.NewString(), "", 0)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
}

func TestGetTag_400_BadUUID(t *testing.T) {
	rec := do(newTagHTTPHandler(&mockTagServicer{}), http.MethodGet, "/tags/not-a-uuid", "", 0)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- PUT /tags/{tagId} -----------------------------------------------------

func TestEditTag_204(t *testing.T) {
	id := uuid.New()
	var got service.EditTagRequest
	svc := &mockTagServicer{
		editTag: func(_ context.Context, req service.EditTagRequest) error {
			got = req
			return nil
		},
	}

	rec := do(newTagHTTPHandler(svc), http.MethodPut, "/tags/"+id.String(),
		`{"name":"Purchasing","owner_type":2,"owner_id":"2"}`, 3)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, got.TagID)
	assert.Equal(t, "Purchasing", got.Name)
	assert.Equal(t, int64(3), got.UserID)
}

func TestEditTag_409_DuplicateName(t *testing.T) {
	svc := &mockTagServicer{
		editTag: func(context.Context, service.EditTagRequest) error {
			return fmt.Errorf("service.TagService.EditTag: %w", domain.ErrDuplicateName)
		},
	}

	rec := do(newTagHTTPHandler(svc), http.MethodPut, "/tags/"+uuid.NewString(),
		`{"name":"Urgent","owner_type":2,"owner_id":"2"}`, 1)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_name", errorCode(t, rec))
}

// ---- DELETE /tags/{tagId} --------------------------------------------------

func TestDeleteTag_204(t *testing.T) {
	id := uuid.New()
	var gotUser int64
	svc := &mockTagServicer{
		deleteTag: func(_ context.Context, tagID uuid.UUID, userID int64) error {
			assert.Equal(t, id, tagID)
			gotUser = userID
			return nil
		},
	}

	rec := do(newTagHTTPHandler(svc), http.MethodDelete, "/tags/"+id.String(), "", 5)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(5), gotUser)
}

func TestDeleteTag_400_MissingUser(t *testing.T) {
	rec := do(newTagHTTPHandler(&mockTagServicer{}), http.MethodDelete, "/tags/"+uuid.NewString(), "", 0)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
