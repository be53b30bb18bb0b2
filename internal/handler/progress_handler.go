package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"gradebook/internal/service"
)

// ProgressSource reports the state of import jobs.
type ProgressSource interface {
	GetJobProgress(jobID string) *service.ProgressInfo
	GetAllJobProgress() []*service.ProgressInfo
	RegisterProgressListener(ch chan *service.ProgressInfo)
	UnregisterProgressListener(ch chan *service.ProgressInfo)
}

type ProgressHandler struct {
	progress ProgressSource
	logger   *log.Logger
}

func NewProgressHandler(progress ProgressSource, logger *log.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger}
}

// GetJobProgress returns the progress for a specific import job
func (h *ProgressHandler) GetJobProgress(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	if jobID == "" {
		writeFailure(w, http.StatusBadRequest, "job id is required", nil)
		return
	}

	progress := h.progress.GetJobProgress(jobID)
	if progress == nil {
		writeFailure(w, http.StatusNotFound, "Import job not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// GetAllProgress returns the progress for all import jobs, oldest first
func (h *ProgressHandler) GetAllProgress(w http.ResponseWriter, r *http.Request) {
	progress := h.progress.GetAllJobProgress()
	sort.SliceStable(progress, func(i, j int) bool {
		return progress[i].StartTime.Before(progress[j].StartTime)
	})
	writeJSON(w, http.StatusOK, progress)
}

// SSEProgress streams progress updates to the client using Server-Sent Events (SSE)
func (h *ProgressHandler) SSEProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	progressChan := make(chan *service.ProgressInfo, 16)
	defer close(progressChan)

	h.progress.RegisterProgressListener(progressChan)
	defer h.progress.UnregisterProgressListener(progressChan)

	for {
		select {
		case progress := <-progressChan:
			data, err := json.Marshal(progress)
			if err != nil {
				h.logger.Println("Error marshaling progress:", err)
				continue
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				h.logger.Println("Error writing SSE data:", err)
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
