package service

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gradebook/internal/model"
	"gradebook/internal/testutil"
)

func newTestImportService(t *testing.T) *ImportService {
	return NewImportService(testutil.PrepareDB(t), log.New(io.Discard, "", 0))
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewImportService(t *testing.T) {
	service := newTestImportService(t)

	assert.NotNil(t, service.db)
	assert.NotNil(t, service.jobProgressMap)
	assert.NotNil(t, service.progressListeners)
	assert.Equal(t, 2*runtime.NumCPU(), cap(service.workerSemaphore))
}

func TestRegisterAndUnregisterProgressListener(t *testing.T) {
	service := newTestImportService(t)
	ch := make(chan *ProgressInfo)

	service.RegisterProgressListener(ch)
	service.listenerLock.RLock()
	assert.True(t, service.progressListeners[ch])
	service.listenerLock.RUnlock()

	service.UnregisterProgressListener(ch)
	service.listenerLock.RLock()
	assert.False(t, service.progressListeners[ch])
	service.listenerLock.RUnlock()
}

func TestBroadcastProgress(t *testing.T) {
	service := newTestImportService(t)
	ch := make(chan *ProgressInfo, 1) // Buffer of 1 to prevent blocking
	service.RegisterProgressListener(ch)

	progress := &ProgressInfo{FileName: "test.csv", Status: StatusProcessing}
	service.BroadcastProgress(progress)

	select {
	case received := <-ch:
		assert.Equal(t, *progress, *received)
		assert.NotSame(t, progress, received)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for progress broadcast")
	}
}

func TestGetJobProgress(t *testing.T) {
	service := newTestImportService(t)
	jobID := service.NewJob("test.csv")

	result := service.GetJobProgress(jobID)
	require.NotNil(t, result)
	assert.Equal(t, jobID, result.JobID)
	assert.Equal(t, "test.csv", result.FileName)
	assert.Equal(t, StatusProcessing, result.Status)
	assert.False(t, result.StartTime.IsZero())

	assert.Nil(t, service.GetJobProgress("nonexistent"))
}

func TestProgressJSONOmitsEndTimeWhileProcessing(t *testing.T) {
	service := newTestImportService(t)
	jobID := service.NewJob("grades.csv")

	data, err := json.Marshal(service.GetJobProgress(jobID))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "end_time")

	service.updateProgressError(jobID, "boom")
	data, err = json.Marshal(service.GetJobProgress(jobID))
	require.NoError(t, err)
	assert.Contains(t, string(data), "end_time")
}

func TestGetAllJobProgress(t *testing.T) {
	service := newTestImportService(t)
	first := service.NewJob("file1.csv")
	second := service.NewJob("file2.xlsx")

	results := service.GetAllJobProgress()
	require.Len(t, results, 2)

	seen := map[string]string{}
	for _, p := range results {
		seen[p.JobID] = p.FileName
	}
	assert.Equal(t, map[string]string{first: "file1.csv", second: "file2.xlsx"}, seen)
}

func TestUpdateProgress(t *testing.T) {
	service := newTestImportService(t)
	ch := make(chan *ProgressInfo, 1)
	service.RegisterProgressListener(ch)
	jobID := service.NewJob("test.csv")

	service.updateProgress(jobID, 10, 2)
	service.updateProgress(jobID, 5, 0)

	progress := service.GetJobProgress(jobID)
	assert.Equal(t, 15, progress.Processed)
	assert.Equal(t, 2, progress.Skipped)

	select {
	case received := <-ch:
		assert.Equal(t, jobID, received.JobID)
		assert.Equal(t, 10, received.Processed)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for progress broadcast")
	}
}

func TestUpdateProgressError(t *testing.T) {
	service := newTestImportService(t)
	jobID := service.NewJob("test.csv")

	service.updateProgressError(jobID, "test error")

	progress := service.GetJobProgress(jobID)
	assert.Equal(t, StatusError, progress.Status)
	assert.Equal(t, "test error", progress.Error)
	require.NotNil(t, progress.EndTime)
	assert.False(t, progress.EndTime.IsZero())
}

func TestSaveBatch(t *testing.T) {
	service := newTestImportService(t)

	records := []model.Record{
		{Name: "Alice", Course: "Math", Grade: 95},
		{Name: "Bob", Course: "Science", Grade: 87},
	}
	require.NoError(t, service.saveBatch(records))
	assert.Equal(t, int64(2), testutil.CountRecords(t, service.db))

	var found model.Record
	require.NoError(t, service.db.Where("name = ?", "Alice").First(&found).Error)
	assert.Equal(t, "Math", found.Course)
	assert.Equal(t, 95, found.Grade)
}

func TestParseRow(t *testing.T) {
	rec, err := parseRow([]string{" Alice ", "Math", "95"})
	require.NoError(t, err)
	assert.Equal(t, model.Record{Name: "Alice", Course: "Math", Grade: 95}, rec)

	for _, row := range [][]string{
		{"Alice", "Math"},
		{"Alice", "Math", "abc"},
		{"Alice", "Math", "101"},
		{"", "Math", "50"},
	} {
		_, err := parseRow(row)
		assert.Error(t, err, "%v", row)
	}
}

func TestProcessFileCSV(t *testing.T) {
	service := newTestImportService(t)
	path := writeFile(t, "grades.csv", "name,course,grade\n"+
		"Alice,Math,95\n"+
		"Bob,Science,87\n"+
		"Charlie,History,92\n"+
		"Broken,History,abc\n"+
		"TooHigh,History,150\n")

	jobID := service.NewJob("grades.csv")
	require.NoError(t, service.ProcessFile(jobID, path))

	progress := service.GetJobProgress(jobID)
	require.NotNil(t, progress)
	assert.Equal(t, StatusCompleted, progress.Status)
	assert.Equal(t, 5, progress.TotalRecords)
	assert.Equal(t, 3, progress.Processed)
	assert.Equal(t, 2, progress.Skipped)
	assert.Equal(t, int64(3), testutil.CountRecords(t, service.db))

	var alice model.Record
	require.NoError(t, service.db.Where("name = ?", "Alice").First(&alice).Error)
	assert.Equal(t, "Math", alice.Course)
	assert.Equal(t, 95, alice.Grade)
}

func TestProcessFileXLSX(t *testing.T) {
	service := newTestImportService(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"name", "course", "grade"},
		{"Ada", "CS", 95},
		{"Grace", "CS", 100},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	jobID := service.NewJob("grades.xlsx")
	require.NoError(t, service.ProcessFile(jobID, path))

	progress := service.GetJobProgress(jobID)
	assert.Equal(t, StatusCompleted, progress.Status)
	assert.Equal(t, 2, progress.Processed)
	assert.Equal(t, int64(2), testutil.CountRecords(t, service.db))
}

func TestProcessFileUnsupported(t *testing.T) {
	service := newTestImportService(t)
	path := writeFile(t, "grades.txt", "name,course,grade\n")

	jobID := service.NewJob("grades.txt")
	err := service.ProcessFile(jobID, path)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Equal(t, StatusError, service.GetJobProgress(jobID).Status)
}

func TestCalculateWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, calculateWorkers(10), 1)
	assert.LessOrEqual(t, calculateWorkers(10), 2)
	assert.GreaterOrEqual(t, calculateWorkers(2_000_000_000), calculateWorkers(10))
}
