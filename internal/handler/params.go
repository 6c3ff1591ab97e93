package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/atag/internal/domain"
)

// pathUUID binds the named path parameter as a UUID, writing 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		badRequest(w, fmt.Sprintf("invalid format for parameter %s: %v", name, err))
		return uuid.Nil, false
	}
	return id, true
}

// pathString binds the named path parameter as an unescaped string.
func pathString(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		badRequest(w, fmt.Sprintf("invalid format for parameter %s: %v", name, err))
		return "", false
	}
	return v, true
}

// pathEntity binds the {entityType}/{entityKey} path parameters.
func pathEntity(w http.ResponseWriter, r *http.Request) (domain.EntityRef, bool) {
	entityType, ok := pathString(w, r, "entityType")
	if !ok {
		return domain.EntityRef{}, false
	}
	entityKey, ok := pathString(w, r, "entityKey")
	if !ok {
		return domain.EntityRef{}, false
	}
	return domain.EntityRef{Type: entityType, Key: entityKey}, true
}

// queryPagination binds the optional ?page= and ?page_size= parameters.
func queryPagination(w http.ResponseWriter, r *http.Request) (domain.PaginationParams, bool) {
	var page, pageSize *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		badRequest(w, fmt.Sprintf("invalid format for parameter page: %v", err))
		return domain.PaginationParams{}, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "page_size", q, &pageSize); err != nil {
		badRequest(w, fmt.Sprintf("invalid format for parameter page_size: %v", err))
		return domain.PaginationParams{}, false
	}
	return domain.NewPaginationParams(page, pageSize), true
}

// queryOwners binds the repeatable ?owner=<type>:<id> parameter.
func queryOwners(w http.ResponseWriter, r *http.Request) ([]domain.OwnerFilter, bool) {
	var raw []string
	if err := runtime.BindQueryParameter("form", true, false, "owner", r.URL.Query(), &raw); err != nil {
		badRequest(w, fmt.Sprintf("invalid format for parameter owner: %v", err))
		return nil, false
	}

	filters := make([]domain.OwnerFilter, 0, len(raw))
	for _, v := range raw {
		f, err := domain.ParseOwnerFilter(v)
		if err != nil {
			badRequest(w, err.Error())
			return nil, false
		}
		filters = append(filters, f)
	}
	return filters, true
}
