package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/atag/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"tag_id", "tag_name", "owner_type", "owner_id",
	"tagged_entity_id", "entity_type", "entity_key", "tagged_by", "tagged_at",
	"note", "note_modified_at",
}

// ExportRow is the JSON representation of one exported tagged entity.
type ExportRow struct {
	TagID          string     `json:"tag_id"`
	TagName        string     `json:"tag_name"`
	OwnerType      int        `json:"owner_type"`
	OwnerID        string     `json:"owner_id"`
	TaggedEntityID string     `json:"tagged_entity_id"`
	EntityType     string     `json:"entity_type"`
	EntityKey      string     `json:"entity_key"`
	TaggedBy       int64      `json:"tagged_by"`
	TaggedAt       time.Time  `json:"tagged_at"`
	Note           *string    `json:"note,omitempty"`
	NoteModifiedAt *time.Time `json:"note_modified_at,omitempty"`
}

// GetExport handles GET /tags/{tagId}/entities/export.
// It returns every entity tagged with the tag as CSV; use ?format=json for JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathUUID(w, r, "tagId")
	if !ok {
		return
	}
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		badRequest(w, fmt.Sprintf("invalid format for parameter format: %v", err))
		return
	}
	if format != nil && *format != "csv" && *format != "json" {
		badRequest(w, `format must be "csv" or "json"`)
		return
	}

	rows, err := s.export.Export(r.Context(), tagID)
	if err != nil {
		s.writeServiceError(w, r, "tag not found", err)
		return
	}

	if format != nil && *format == "json" {
		writeJSON(w, http.StatusOK, buildJSONResponse(rows))
		return
	}
	writeCSV(w, tagID.String(), rows)
}

// buildJSONResponse converts domain rows to the JSON response.
func buildJSONResponse(rows []domain.ExportRow) []ExportRow {
	out := make([]ExportRow, 0, len(rows))
	for _, r := range rows {
		row := ExportRow{
			TagID:          r.TagID,
			TagName:        r.TagName,
			OwnerType:      int(r.OwnerType),
			OwnerID:        r.OwnerID,
			TaggedEntityID: r.TaggedEntityID,
			EntityType:     r.EntityType,
			EntityKey:      r.EntityKey,
			TaggedBy:       r.TaggedBy,
			TaggedAt:       r.TaggedAt,
			NoteModifiedAt: r.NoteModifiedAt,
		}
		if r.NoteModifiedAt != nil {
			note := r.Note
			row.Note = &note
		}
		out = append(out, row)
	}
	return out
}

// writeCSV encodes domain rows as CSV with a header row.
func writeCSV(w http.ResponseWriter, name string, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write(domainRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tag-%s.csv"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// A missing note leaves both note columns empty.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		r.TagID,
		r.TagName,
		strconv.Itoa(int(r.OwnerType)),
		r.OwnerID,
		r.TaggedEntityID,
		r.EntityType,
		r.EntityKey,
		strconv.FormatInt(r.TaggedBy, 10),
		r.TaggedAt.UTC().Format(time.RFC3339),
		r.Note,
		formatOptionalTime(r.NoteModifiedAt),
	}
}

// formatOptionalTime returns the RFC3339 representation of t, or "" if t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
