package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"gradebook/internal/model"
	"gradebook/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Println("Error encoding response:", err)
	}
}

func writeFailure(w http.ResponseWriter, status int, message string, fields map[string]string) {
	writeJSON(w, status, model.Result{Success: false, Message: message, Errors: fields})
}

// writeError maps err onto a failure envelope. Validation problems become
// 400, missing records 404; anything else is a store failure and is reported
// as a plain 500 without an envelope.
func writeError(w http.ResponseWriter, logger *log.Logger, action string, id uint, err error) {
	var vErr *model.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeFailure(w, http.StatusBadRequest, "unable to "+action+": "+validationMessage(vErr), vErr.FieldMap())
	case errors.Is(err, service.ErrNotFound):
		writeFailure(w, http.StatusNotFound, fmt.Sprintf("unable to %s: record %d not found", action, id), nil)
	default:
		logger.Printf("ERROR: %s: %+v", action, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func validationMessage(vErr *model.ValidationError) string {
	if len(vErr.Fields) == 0 {
		return vErr.Error()
	}
	msgs := make([]string, 0, len(vErr.Fields))
	for _, fld := range vErr.Fields {
		msgs = append(msgs, fld.Error)
	}
	return strings.Join(msgs, "; ")
}
