package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-organizer/internal/config"
	"task-organizer/internal/model"
	"task-organizer/internal/repository"
	"task-organizer/internal/service"
)

type testServer struct {
	db      *gorm.DB
	handler http.Handler
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	db, err := repository.NewDB(config.Config{DatabaseURL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := repository.NewTaskRepository(db)
	tasks := NewTaskHandler(service.NewTaskService(repo))
	return &testServer{db: db, handler: NewRouter(tasks, repo, []string{"*"})}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) failOn(t *testing.T, register func(*gorm.DB) error) {
	t.Helper()
	require.NoError(t, register(s.db))
}

func failCallback(msg string) func(*gorm.DB) {
	return func(tx *gorm.DB) { _ = tx.AddError(errors.New(msg)) }
}

func decodeTasks(t *testing.T, rec *httptest.ResponseRecorder) []model.Task {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	return tasks
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestTaskLifecycle(t *testing.T) {
	s := setupServer(t)

	rec := s.do(t, http.MethodPost, "/Tarefa",
		`{"id":99,"title":"Write report","description":"Q1","property1":"a","property2":"b","date":"2024-01-01T00:00:00","status":"Pending"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/Tarefa/1", rec.Header().Get("Location"))

	var created model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, uint(1), created.ID)
	assert.Equal(t, "Write report", created.Title)

	rec = s.do(t, http.MethodGet, "/Tarefa/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Q1", got.Description)
	assert.True(t, got.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, model.StatusPending, got.Status)

	rec = s.do(t, http.MethodGet, "/Tarefa/ObterPorData?data=2024-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeTasks(t, rec), 1)

	rec = s.do(t, http.MethodPut, "/Tarefa/1",
		`{"title":"ignored","property1":"x","property2":"y","date":"2024-05-05","status":"Completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/Tarefa/1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, "x", got.Property1)
	assert.Equal(t, "y", got.Property2)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.True(t, got.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	rec = s.do(t, http.MethodDelete, "/Tarefa/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/Tarefa/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueries(t *testing.T) {
	s := setupServer(t)
	for _, body := range []string{
		`{"title":"Buy milk","date":"2024-02-10T08:30:00"}`,
		`{"title":"Walk dog","date":"2024-02-10T23:59:59","status":"InProgress"}`,
		`{"title":"buy bread","date":"2024-02-11","status":2}`,
	} {
		rec := s.do(t, http.MethodPost, "/Tarefa", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"all", "/Tarefa/ObterTodos", []string{"Buy milk", "Walk dog", "buy bread"}},
		{"title substring", "/Tarefa/ObterPorTitulo?titulo=milk", []string{"Buy milk"}},
		{"title empty", "/Tarefa/ObterPorTitulo?titulo=", []string{"Buy milk", "Walk dog", "buy bread"}},
		{"title no match", "/Tarefa/ObterPorTitulo?titulo=zzz", []string{}},
		{"date ignores time", "/Tarefa/ObterPorData?data=2024-02-10T15:00:00", []string{"Buy milk", "Walk dog"}},
		{"date with no tasks", "/Tarefa/ObterPorData?data=2023-12-31", []string{}},
		{"status by name", "/Tarefa/ObterPorStatus?status=InProgress", []string{"Walk dog"}},
		{"status by ordinal", "/Tarefa/ObterPorStatus?status=2", []string{"buy bread"}},
		{"status lower case", "/Tarefa/ObterPorStatus?status=pending", []string{"Buy milk"}},
		{"date absent", "/Tarefa/ObterPorData", []string{}},
		{"status absent means pending", "/Tarefa/ObterPorStatus", []string{"Buy milk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			titles := []string{}
			for _, task := range decodeTasks(t, rec) {
				titles = append(titles, task.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestEmptyListIsArray(t *testing.T) {
	s := setupServer(t)

	rec := s.do(t, http.MethodGet, "/Tarefa/ObterTodos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestBadRequests(t *testing.T) {
	s := setupServer(t)
	rec := s.do(t, http.MethodPost, "/Tarefa", `{"title":"seed","date":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		wantMsg string
	}{
		{"create without date", http.MethodPost, "/Tarefa", `{"title":"no date"}`, "task date cannot be empty"},
		{"create with null date", http.MethodPost, "/Tarefa", `{"title":"x","date":null}`, "task date cannot be empty"},
		{"create with bad date", http.MethodPost, "/Tarefa", `{"date":"tomorrow"}`, "invalid request body"},
		{"create with bad status", http.MethodPost, "/Tarefa", `{"date":"2024-01-01","status":"Blocked"}`, "invalid request body"},
		{"create with malformed json", http.MethodPost, "/Tarefa", `{"title":`, "invalid request body"},
		{"update without date", http.MethodPut, "/Tarefa/1", `{"property1":"x"}`, "task date cannot be empty"},
		{"non numeric id", http.MethodGet, "/Tarefa/abc", "", "invalid task id"},
		{"missing titulo", http.MethodGet, "/Tarefa/ObterPorTitulo", "", "titulo is required"},
		{"malformed data", http.MethodGet, "/Tarefa/ObterPorData?data=01-02-2024x", "", "invalid data"},
		{"unknown status", http.MethodGet, "/Tarefa/ObterPorStatus?status=Blocked", "", "invalid status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.target, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, errorMessage(t, rec), tt.wantMsg)
		})
	}
}

func TestNotFound(t *testing.T) {
	s := setupServer(t)

	for _, tc := range []struct{ method, body string }{
		{http.MethodGet, ""},
		{http.MethodPut, `{"property1":"x","date":"2024-01-01"}`},
		{http.MethodDelete, ""},
	} {
		rec := s.do(t, tc.method, "/Tarefa/42", tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method)
		assert.Empty(t, rec.Body.String(), tc.method)
	}
}

func TestUpdateMissingTaskWinsOverEmptyDate(t *testing.T) {
	s := setupServer(t)

	rec := s.do(t, http.MethodPut, "/Tarefa/7", `{"property1":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPersistenceFailures(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		s := setupServer(t)
		s.failOn(t, func(db *gorm.DB) error {
			return db.Callback().Create().Before("gorm:create").Register("test:fail", failCallback("disk full"))
		})

		rec := s.do(t, http.MethodPost, "/Tarefa", `{"title":"x","date":"2024-01-01"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "an error occurred while creating the task: disk full", errorMessage(t, rec))
	})

	t.Run("update", func(t *testing.T) {
		s := setupServer(t)
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/Tarefa", `{"date":"2024-01-01"}`).Code)
		s.failOn(t, func(db *gorm.DB) error {
			return db.Callback().Update().Before("gorm:update").Register("test:fail", failCallback("database is locked"))
		})

		rec := s.do(t, http.MethodPut, "/Tarefa/1", `{"property1":"x","date":"2024-01-01"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "an error occurred while updating the task: database is locked", errorMessage(t, rec))
	})

	t.Run("delete", func(t *testing.T) {
		s := setupServer(t)
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/Tarefa", `{"date":"2024-01-01"}`).Code)
		s.failOn(t, func(db *gorm.DB) error {
			return db.Callback().Delete().Before("gorm:delete").Register("test:fail", failCallback("constraint failed"))
		})

		rec := s.do(t, http.MethodDelete, "/Tarefa/1", "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "an error occurred while deleting the task: constraint failed", errorMessage(t, rec))
	})

	t.Run("read", func(t *testing.T) {
		s := setupServer(t)
		s.failOn(t, func(db *gorm.DB) error {
			return db.Callback().Query().Before("gorm:query").Register("test:fail", failCallback("no such table"))
		})

		rec := s.do(t, http.MethodGet, "/Tarefa/ObterTodos", "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error", errorMessage(t, rec))
	})
}
