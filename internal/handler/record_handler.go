package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"gradebook/internal/model"
	"gradebook/internal/service"
)

const (
	msgListed  = "Data received from database!"
	msgEmpty   = "no records"
	msgCreated = "Data added to database!"
)

// RecordStore is the persistence behind the records endpoints.
type RecordStore interface {
	List(ctx context.Context, opts service.ListOptions) ([]model.Record, error)
	Create(ctx context.Context, draft model.Draft) (model.Record, error)
	Update(ctx context.Context, id uint, draft model.Draft) (model.Record, error)
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context) (model.Stats, error)
}

type RecordHandler struct {
	records RecordStore
	logger  *log.Logger
}

func NewRecordHandler(records RecordStore, logger *log.Logger) *RecordHandler {
	return &RecordHandler{records: records, logger: logger}
}

// ListRecords serves GET /records and the form-POST /list.
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{
		Name:      r.FormValue("name"),
		Course:    r.FormValue("course"),
		SortBy:    r.FormValue("sort_by"),
		SortOrder: r.FormValue("sort_order"),
	}
	if v, err := strconv.Atoi(r.FormValue("grade_min")); err == nil {
		opts.GradeMin = &v
	}
	if v, err := strconv.Atoi(r.FormValue("grade_max")); err == nil {
		opts.GradeMax = &v
	}

	records, err := h.records.List(r.Context(), opts)
	if err != nil {
		writeError(w, h.logger, "list", 0, err)
		return
	}
	if len(records) == 0 {
		writeJSON(w, http.StatusOK, model.Result{Success: true, Message: msgEmpty})
		return
	}
	writeJSON(w, http.StatusOK, model.Result{Success: true, Message: msgListed, Data: records})
}

// CreateRecord serves POST /records and the form-POST /create.
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	draft, err := decodeDraft(r)
	if err != nil {
		writeError(w, h.logger, "create", 0, err)
		return
	}
	rec, err := h.records.Create(r.Context(), draft)
	if err != nil {
		writeError(w, h.logger, "create", 0, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.Result{Success: true, Message: msgCreated, NewID: rec.ID, Record: &rec})
}

// UpdateRecord serves PUT /records/{id} and the form-POST /update.
func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r, "id")
	if err != nil {
		writeError(w, h.logger, "update", 0, err)
		return
	}
	draft, err := decodeDraft(r)
	if err != nil {
		writeError(w, h.logger, "update", id, err)
		return
	}
	rec, err := h.records.Update(r.Context(), id, draft)
	if err != nil {
		writeError(w, h.logger, "update", id, err)
		return
	}
	msg := fmt.Sprintf("Successfully updated row id: %d", id)
	writeJSON(w, http.StatusOK, model.Result{Success: true, Message: msg, Record: &rec})
}

// DeleteRecord serves DELETE /records/{id} and the form-POST /delete. The
// form variant also accepts the studentId field.
func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r, "id", "studentId")
	if err != nil {
		writeError(w, h.logger, "delete", 0, err)
		return
	}
	if err := h.records.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete", id, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Result{Success: true, Message: fmt.Sprintf("Successfully deleted row id: %d", id)})
}

// GetStats serves GET /records/stats.
func (h *RecordHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.records.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, "compute stats", 0, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// recordID reads the id from the route, falling back to the named form fields.
func recordID(r *http.Request, fields ...string) (uint, error) {
	raw, ok := mux.Vars(r)["id"]
	if !ok {
		for _, field := range fields {
			if raw = r.FormValue(field); raw != "" {
				break
			}
		}
	}
	return model.ParseID(raw)
}

type draftPayload struct {
	Name   string      `json:"name"`
	Course string      `json:"course"`
	Grade  json.Number `json:"grade"`
}

// decodeDraft accepts either a JSON body or a url-encoded form.
func decodeDraft(r *http.Request) (model.Draft, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var payload draftPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return model.Draft{}, model.NewValidationError(
				errors.New("malformed request body"),
				model.FieldError{Field: "body", Error: "request body must be a JSON object with name, course and a numeric grade"},
			)
		}
		return model.ParseDraft(payload.Name, payload.Course, payload.Grade.String())
	}
	return model.ParseDraft(r.FormValue("name"), r.FormValue("course"), r.FormValue("grade"))
}
