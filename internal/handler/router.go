package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Imports is the import pipeline as seen by the HTTP layer.
type Imports interface {
	Importer
	ProgressSource
}

type Options struct {
	Records        RecordStore
	Imports        Imports // nil disables the /import routes
	UploadDir      string
	AllowedOrigins []string
	Logger         *log.Logger
	AccessLog      io.Writer // nil disables access logging
}

// NewRouter wires every route and the shared middleware.
func NewRouter(opts Options) http.Handler {
	r := mux.NewRouter()

	records := NewRecordHandler(opts.Records, opts.Logger)
	r.HandleFunc("/records", records.ListRecords).Methods(http.MethodGet)
	r.HandleFunc("/records", records.CreateRecord).Methods(http.MethodPost)
	r.HandleFunc("/records/stats", records.GetStats).Methods(http.MethodGet)
	r.HandleFunc("/records/{id}", records.UpdateRecord).Methods(http.MethodPut)
	r.HandleFunc("/records/{id}", records.DeleteRecord).Methods(http.MethodDelete)

	// form-encoded endpoints kept for the legacy page
	r.HandleFunc("/list", records.ListRecords).Methods(http.MethodPost)
	r.HandleFunc("/create", records.CreateRecord).Methods(http.MethodPost)
	r.HandleFunc("/update", records.UpdateRecord).Methods(http.MethodPost)
	r.HandleFunc("/delete", records.DeleteRecord).Methods(http.MethodPost)

	if opts.Imports != nil {
		imports := NewImportHandler(opts.Imports, opts.UploadDir, opts.Logger)
		progress := NewProgressHandler(opts.Imports, opts.Logger)
		r.HandleFunc("/import", imports.UploadFiles).Methods(http.MethodPost)
		r.HandleFunc("/import/progress", progress.GetAllProgress).Methods(http.MethodGet)
		r.HandleFunc("/import/progress/{id}", progress.GetJobProgress).Methods(http.MethodGet)
		r.HandleFunc("/import/events", progress.SSEProgress).Methods(http.MethodGet)
	}

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins(opts.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(opts.Logger), handlers.PrintRecoveryStack(true))(h)
	if opts.AccessLog != nil {
		h = handlers.CombinedLoggingHandler(opts.AccessLog, h)
	}
	return h
}
