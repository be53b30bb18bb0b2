package handler_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gradebook/internal/handler"
	"gradebook/internal/model"
	"gradebook/internal/service"
	"gradebook/internal/testutil"
)

func newDBRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	db := testutil.PrepareDB(t)
	return handler.NewRouter(handler.Options{
		Records: service.NewRecordService(db),
		Logger:  testLogger,
	}), db
}

func TestRouter_EmptyTableLists(t *testing.T) {
	router, _ := newDBRouter(t)

	w := serve(router, http.MethodGet, "/records", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeResult(t, w)
	assert.True(t, res.Success)
	assert.Empty(t, res.Data)
}

func TestRouter_CreateGradeBounds(t *testing.T) {
	tests := []struct {
		grade   string
		status  int
		success bool
	}{
		{"0", http.StatusCreated, true},
		{"100", http.StatusCreated, true},
		{"-1", http.StatusBadRequest, false},
		{"101", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run("grade "+tt.grade, func(t *testing.T) {
			router, db := newDBRouter(t)

			body := `{"name":"Ada","course":"CS","grade":` + tt.grade + `}`
			w := serve(router, http.MethodPost, "/records", jsonType, body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.success, decodeResult(t, w).Success)

			var want int64
			if tt.success {
				want = 1
			}
			assert.Equal(t, want, testutil.CountRecords(t, db))
		})
	}
}

func TestRouter_RoundTrip(t *testing.T) {
	router, db := newDBRouter(t)

	w := serve(router, http.MethodPost, "/records", jsonType, `{"name":"Ada","course":"CS","grade":95}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeResult(t, w)
	require.NotZero(t, created.NewID)

	w = serve(router, http.MethodGet, "/records", "", "")
	listed := decodeResult(t, w)
	require.Len(t, listed.Data, 1)
	assert.Equal(t, model.Record{ID: created.NewID, Name: "Ada", Course: "CS", Grade: 95}, listed.Data[0])

	form := url.Values{"id": {"1"}, "name": {"Ada"}, "course": {"Math"}, "grade": {"70"}}
	w = serve(router, http.MethodPost, "/update", formType, form.Encode())
	require.Equal(t, http.StatusOK, w.Code)

	var stored model.Record
	require.NoError(t, db.First(&stored, created.NewID).Error)
	assert.Equal(t, "Math", stored.Course)
	assert.Equal(t, 70, stored.Grade)

	w = serve(router, http.MethodDelete, "/records/1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, testutil.CountRecords(t, db))
}

func TestRouter_DeleteMissingLeavesTable(t *testing.T) {
	router, db := newDBRouter(t)
	testutil.Seed(t, db, model.Record{Name: "Ada", Course: "CS", Grade: 95})

	w := serve(router, http.MethodDelete, "/records/99", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	res := decodeResult(t, w)
	assert.False(t, res.Success)
	assert.Equal(t, "unable to delete: record 99 not found", res.Message)
	assert.Equal(t, int64(1), testutil.CountRecords(t, db))
}

func TestRouter_UpdateMissing(t *testing.T) {
	router, db := newDBRouter(t)

	w := serve(router, http.MethodPut, "/records/5", jsonType, `{"name":"Ada","course":"CS","grade":95}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decodeResult(t, w).Success)
	assert.Zero(t, testutil.CountRecords(t, db))
}

func TestRouter_UpdateSameValues(t *testing.T) {
	router, db := newDBRouter(t)
	testutil.Seed(t, db, model.Record{Name: "Ada", Course: "CS", Grade: 95})

	w := serve(router, http.MethodPut, "/records/1", jsonType, `{"name":"Ada","course":"CS","grade":95}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResult(t, w).Success)
}

func TestRouter_Stats(t *testing.T) {
	router, db := newDBRouter(t)
	testutil.Seed(t, db,
		model.Record{Name: "A", Course: "X", Grade: 90},
		model.Record{Name: "B", Course: "X", Grade: 85},
	)

	w := serve(router, http.MethodGet, "/records/stats", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":2,"average":88}`, w.Body.String())
}

func TestRouter_ImportRoutesDisabled(t *testing.T) {
	router, _ := newDBRouter(t)

	w := serve(router, http.MethodGet, "/import/progress", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
