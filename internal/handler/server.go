// Package handler implements the HTTP handlers for the ATag API.
// All handlers are methods on Server. Methods are split into resource-specific
// files (health.go, tag.go, entity.go, export.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/atag/internal/domain"
	"github.com/pkordes/atag/internal/service"
)

// TagServicer defines the business operations the tag handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TagServicer interface {
	AddTag(ctx context.Context, req service.AddTagRequest) (uuid.UUID, error)
	EditTag(ctx context.Context, req service.EditTagRequest) error
	DeleteTag(ctx context.Context, tagID uuid.UUID, userID int64) error
	LoadTag(ctx context.Context, tagID uuid.UUID) (domain.Tag, error)
	LoadTagsPaged(ctx context.Context, p domain.PaginationParams, filters ...domain.OwnerFilter) (domain.Page[domain.Tag], error)
	LoadEntityTags(ctx context.Context, entity domain.EntityRef, filters ...domain.OwnerFilter) ([]domain.Tag, error)
	TagEntity(ctx context.Context, req service.TagEntityRequest) error
	DeleteTaggedEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) error
	LoadTaggedEntitiesPaged(ctx context.Context, tagID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.TaggedEntity], error)
	EditTagNote(ctx context.Context, taggedEntityID uuid.UUID, note string, userID int64) error
	EditTagNoteByEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef, note string, userID int64) error
	LoadTagNote(ctx context.Context, taggedEntityID uuid.UUID) (string, error)
	LoadTagNoteByEntity(ctx context.Context, tagID uuid.UUID, entity domain.EntityRef) (string, error)
}

// ExportServicer defines the operation the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context, tagID uuid.UUID) ([]domain.ExportRow, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	tags   TagServicer
	export ExportServicer
	logger *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(tags TagServicer, export ExportServicer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{tags: tags, export: export, logger: logger}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil)
}

// Routes returns a chi router serving every API endpoint.
// Middleware is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", s.ListTags)
		r.Post("/", s.AddTag)
		r.Route("/{tagId}", func(r chi.Router) {
			r.Get("/", s.GetTag)
			r.Put("/", s.EditTag)
			r.Delete("/", s.DeleteTag)
			r.Get("/entities", s.ListTaggedEntities)
			r.Get("/entities/export", s.GetExport)
		})
	})

	r.Route("/entities/{entityType}/{entityKey}/tags", func(r chi.Router) {
		r.Get("/", s.ListEntityTags)
		r.Post("/", s.TagEntity)
		r.Route("/{tagId}", func(r chi.Router) {
			r.Delete("/", s.UntagEntity)
			r.Get("/note", s.GetEntityTagNote)
			r.Put("/note", s.EditEntityTagNote)
		})
	})

	r.Route("/tagged-entities/{taggedEntityId}", func(r chi.Router) {
		r.Get("/note", s.GetTagNote)
		r.Put("/note", s.EditTagNote)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "route not found"))
	})
	return r
}
