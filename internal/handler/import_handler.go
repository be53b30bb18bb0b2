package handler

import (
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gradebook/internal/service"
)

const maxUploadSize = 100 << 20 // 100MB

// Importer turns uploaded files into grade records.
type Importer interface {
	NewJob(fileName string) string
	ProcessFile(jobID, filePath string) error
}

type ImportHandler struct {
	importer  Importer
	uploadDir string
	logger    *log.Logger
}

type importJob struct {
	ID   string `json:"id"`
	File string `json:"file"`
}

func NewImportHandler(importer Importer, uploadDir string, logger *log.Logger) *ImportHandler {
	return &ImportHandler{importer: importer, uploadDir: uploadDir, logger: logger}
}

// UploadFiles serves POST /import. Each accepted file becomes one job that
// runs in the background.
func (h *ImportHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		h.logger.Printf("ERROR: creating upload dir: %v", err)
		http.Error(w, "Failed to create uploads directory", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeFailure(w, http.StatusRequestEntityTooLarge, "File too large or bad request", nil)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeFailure(w, http.StatusBadRequest, "No files uploaded", nil)
		return
	}

	var wg sync.WaitGroup
	jobs := make([]importJob, 0, len(files))
	rejected := map[string]string{}
	saveFailed := false

	for _, header := range files {
		name := filepath.Base(header.Filename)
		ext := strings.ToLower(filepath.Ext(name))
		switch ext {
		case ".csv", ".xlsx":
		default:
			rejected[name] = service.ErrUnsupportedFile.Error()
			continue
		}

		// the job only exists once its file is on disk
		savePath, err := saveUpload(header, h.uploadDir, ext)
		if err != nil {
			h.logger.Printf("ERROR: saving %s: %v", name, err)
			rejected[name] = "unable to save file"
			saveFailed = true
			continue
		}
		jobID := h.importer.NewJob(name)
		jobs = append(jobs, importJob{ID: jobID, File: name})

		wg.Add(1)
		go func(jobID, filePath string) {
			defer wg.Done()
			defer os.Remove(filePath)
			if err := h.importer.ProcessFile(jobID, filePath); err != nil {
				h.logger.Printf("ERROR: import %s (%s): %v", jobID, filePath, err)
			}
		}(jobID, savePath)
	}

	go func() {
		wg.Wait()
		h.logger.Printf("import: %d file(s) processed", len(jobs))
	}()

	if len(jobs) == 0 {
		if saveFailed {
			writeFailure(w, http.StatusInternalServerError, "Unable to save uploaded files", rejected)
			return
		}
		writeFailure(w, http.StatusBadRequest, "No supported files uploaded", rejected)
		return
	}

	response := map[string]interface{}{
		"success": true,
		"message": "Files uploaded successfully and processing started",
		"jobs":    jobs,
	}
	if len(rejected) > 0 {
		response["errors"] = rejected
	}
	writeJSON(w, http.StatusAccepted, response)
}

// saveUpload copies the upload into dir under a unique name ending in ext
// and returns its path. Nothing is left behind on failure.
func saveUpload(header *multipart.FileHeader, dir, ext string) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	outFile, err := os.CreateTemp(dir, "import-*"+ext)
	if err != nil {
		return "", err
	}
	savePath := outFile.Name()
	if _, err := io.Copy(outFile, file); err != nil {
		outFile.Close()
		os.Remove(savePath)
		return "", err
	}
	if err := outFile.Close(); err != nil {
		os.Remove(savePath)
		return "", err
	}
	return savePath, nil
}
