package service

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"gradebook/internal/model"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"

	batchSize = 1000
)

// ErrUnsupportedFile is returned for uploads that are neither .csv nor .xlsx.
var ErrUnsupportedFile = errors.New("unsupported file type, expected .csv or .xlsx")

type ProgressInfo struct {
	JobID        string     `json:"id"`
	FileName     string     `json:"file"`
	TotalRecords int        `json:"total"`
	Processed    int        `json:"processed"`
	Skipped      int        `json:"skipped"`
	Status       string     `json:"status"` // "processing", "completed", "error"
	Error        string     `json:"error,omitempty"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
}

type ImportService struct {
	db                *gorm.DB
	logger            *log.Logger
	jobProgressMap    map[string]*ProgressInfo
	jobProgressLock   sync.RWMutex
	progressListeners map[chan *ProgressInfo]bool
	listenerLock      sync.RWMutex

	workerSemaphore chan struct{} // limits workers across all jobs
}

func NewImportService(db *gorm.DB, logger *log.Logger) *ImportService {
	maxWorkers := runtime.NumCPU() * 2

	return &ImportService{
		db:                db,
		logger:            logger,
		jobProgressMap:    make(map[string]*ProgressInfo),
		progressListeners: make(map[chan *ProgressInfo]bool),
		workerSemaphore:   make(chan struct{}, maxWorkers),
	}
}

// NewJob registers a pending import for fileName and returns its id.
func (s *ImportService) NewJob(fileName string) string {
	id := uuid.NewString()
	s.jobProgressLock.Lock()
	s.jobProgressMap[id] = &ProgressInfo{
		JobID:     id,
		FileName:  fileName,
		Status:    StatusProcessing,
		StartTime: time.Now(),
	}
	s.jobProgressLock.Unlock()
	return id
}

func (s *ImportService) RegisterProgressListener(ch chan *ProgressInfo) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	s.progressListeners[ch] = true
}

// UnregisterProgressListener removes a client from receiving progress updates
func (s *ImportService) UnregisterProgressListener(ch chan *ProgressInfo) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	delete(s.progressListeners, ch)
}

// BroadcastProgress sends a copy of progress to every registered listener
// that is ready to receive it.
func (s *ImportService) BroadcastProgress(progress *ProgressInfo) {
	s.listenerLock.RLock()
	defer s.listenerLock.RUnlock()

	for listener := range s.progressListeners {
		snapshot := *progress
		select {
		case listener <- &snapshot:
		default:
		}
	}
}

func (s *ImportService) updateProgress(jobID string, processed, skipped int) {
	s.jobProgressLock.Lock()
	defer s.jobProgressLock.Unlock()

	if progress, exists := s.jobProgressMap[jobID]; exists {
		progress.Processed += processed
		progress.Skipped += skipped
		s.BroadcastProgress(progress)
	}
}

func (s *ImportService) updateProgressError(jobID string, errorMsg string) {
	s.jobProgressLock.Lock()
	defer s.jobProgressLock.Unlock()

	if progress, exists := s.jobProgressMap[jobID]; exists {
		progress.Status = StatusError
		progress.Error = errorMsg
		endTime := time.Now()
		progress.EndTime = &endTime
		s.BroadcastProgress(progress)
	}
}

func (s *ImportService) GetJobProgress(jobID string) *ProgressInfo {
	s.jobProgressLock.RLock()
	defer s.jobProgressLock.RUnlock()

	if progress, exists := s.jobProgressMap[jobID]; exists {
		copyProgress := *progress
		return &copyProgress
	}
	return nil
}

func (s *ImportService) GetAllJobProgress() []*ProgressInfo {
	s.jobProgressLock.RLock()
	defer s.jobProgressLock.RUnlock()

	result := make([]*ProgressInfo, 0, len(s.jobProgressMap))
	for _, progress := range s.jobProgressMap {
		copyProgress := *progress
		result = append(result, &copyProgress)
	}
	return result
}

// ProcessFile imports the rows of a .csv or .xlsx file into the grades
// table under the given job. The first row is treated as a header.
func (s *ImportService) ProcessFile(jobID, filePath string) error {
	startTime := time.Now()

	rows, err := readRows(filePath)
	if err != nil {
		s.updateProgressError(jobID, "Failed to read file: "+err.Error())
		return err
	}
	if len(rows) > 0 {
		rows = rows[1:] // header
	}

	s.jobProgressLock.Lock()
	if progress, exists := s.jobProgressMap[jobID]; exists {
		progress.TotalRecords = len(rows)
	}
	s.jobProgressLock.Unlock()

	var size int64
	if fileInfo, err := os.Stat(filePath); err == nil {
		size = fileInfo.Size()
	}
	numWorkers := calculateWorkers(size)
	s.logger.Printf("import %s: %d rows from %s with %d workers", jobID, len(rows), filepath.Base(filePath), numWorkers)

	rowCh := make(chan []string, batchSize)
	var wg sync.WaitGroup
	var saveErr error
	var saveErrOnce sync.Once
	onSaveErr := func(err error) { saveErrOnce.Do(func() { saveErr = err }) }

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go s.worker(jobID, rowCh, onSaveErr, &wg)
	}

	go func() {
		for _, row := range rows {
			rowCh <- row
		}
		close(rowCh)
	}()

	wg.Wait()

	if saveErr != nil {
		s.updateProgressError(jobID, saveErr.Error())
		return saveErr
	}

	s.jobProgressLock.Lock()
	if progress, exists := s.jobProgressMap[jobID]; exists {
		progress.Status = StatusCompleted
		endTime := time.Now()
		progress.EndTime = &endTime
		progress.Processed = progress.TotalRecords - progress.Skipped
		s.BroadcastProgress(progress)
	}
	s.jobProgressLock.Unlock()

	s.logger.Printf("import %s: completed in %v", jobID, time.Since(startTime))
	return nil
}

// calculateWorkers determines the appropriate number of workers based on file size
func calculateWorkers(fileSize int64) int {
	cpus := runtime.NumCPU()

	switch {
	case fileSize < 1_000_000:
		return min(2, cpus)
	case fileSize < 10_000_000:
		return min(4, cpus)
	case fileSize < 100_000_000:
		return min(8, cpus)
	case fileSize < 1_000_000_000:
		return min(16, cpus)
	}
	return cpus
}

func (s *ImportService) worker(jobID string, rowCh <-chan []string, onSaveErr func(error), wg *sync.WaitGroup) {
	s.workerSemaphore <- struct{}{}
	defer func() {
		<-s.workerSemaphore
		wg.Done()
	}()

	var records []model.Record
	processed, skipped := 0, 0
	flush := func() {
		if err := s.saveBatch(records); err != nil {
			onSaveErr(err)
			skipped += len(records)
			processed -= len(records)
		}
		s.updateProgress(jobID, processed, skipped)
		records, processed, skipped = nil, 0, 0
	}

	for row := range rowCh {
		rec, err := parseRow(row)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
		processed++

		if len(records) >= batchSize {
			flush()
		}
	}
	flush()
}

func (s *ImportService) saveBatch(records []model.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(&records, batchSize).Error; err != nil {
		return errors.Wrapf(err, "inserting %d records", len(records))
	}
	return nil
}

// parseRow validates a name,course,grade row.
func parseRow(row []string) (model.Record, error) {
	if len(row) < 3 {
		return model.Record{}, errors.Errorf("expected 3 columns, got %d", len(row))
	}
	draft, err := model.ParseDraft(row[0], row[1], row[2])
	if err != nil {
		return model.Record{}, err
	}
	return draft.Record(0), nil
}

func readRows(filePath string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		return readCSV(filePath)
	case ".xlsx":
		return readXLSX(filePath)
	}
	return nil, ErrUnsupportedFile
}

func readCSV(filePath string) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening csv")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading csv")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSX(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening xlsx")
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("xlsx file does not contain any sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheetName)
	}
	return rows, nil
}
