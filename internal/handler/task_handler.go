package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"task-organizer/internal/model"
	"task-organizer/internal/service"
)

const routeTaskByID = "task-by-id"

// TaskHandler exposes the task service over HTTP.
type TaskHandler struct {
	tasks     *service.TaskService
	taskRoute *mux.Route
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Register mounts the task routes on r. Fixed paths go first so they are not
// captured by /{id}.
func (h *TaskHandler) Register(r *mux.Router) {
	r.HandleFunc("/ObterTodos", h.getAll).Methods(http.MethodGet)
	r.HandleFunc("/ObterPorTitulo", h.getByTitle).Methods(http.MethodGet)
	r.HandleFunc("/ObterPorData", h.getByDate).Methods(http.MethodGet)
	r.HandleFunc("/ObterPorStatus", h.getByStatus).Methods(http.MethodGet)

	r.HandleFunc("", h.create).Methods(http.MethodPost)
	r.HandleFunc("/", h.create).Methods(http.MethodPost)

	h.taskRoute = r.HandleFunc("/{id}", h.getByID).Methods(http.MethodGet).Name(routeTaskByID)
	r.HandleFunc("/{id}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/{id}", h.delete).Methods(http.MethodDelete)
}

func (h *TaskHandler) getByID(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) getAll(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListAll(r.Context())
	writeList(w, r, tasks, err)
}

func (h *TaskHandler) getByTitle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("titulo") {
		writeError(w, http.StatusBadRequest, "titulo is required")
		return
	}
	tasks, err := h.tasks.ListByTitle(r.Context(), query.Get("titulo"))
	writeList(w, r, tasks, err)
}

func (h *TaskHandler) getByDate(w http.ResponseWriter, r *http.Request) {
	// An absent data binds to the zero date, which no stored task carries.
	var date time.Time
	if raw := r.URL.Query().Get("data"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid data: "+err.Error())
			return
		}
		date = parsed
	}
	tasks, err := h.tasks.ListByDate(r.Context(), date)
	writeList(w, r, tasks, err)
}

func (h *TaskHandler) getByStatus(w http.ResponseWriter, r *http.Request) {
	status := model.StatusPending
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := model.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status: "+err.Error())
			return
		}
		status = parsed
	}
	tasks, err := h.tasks.ListByStatus(r.Context(), status)
	writeList(w, r, tasks, err)
}

func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeTask(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.taskRoute != nil {
		if loc, err := h.taskRoute.URL("id", strconv.FormatUint(uint64(task.ID), 10)); err == nil {
			w.Header().Set("Location", loc.String())
		}
	}
	log.Printf("[info] task %d created", task.ID)
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	input, ok := decodeTask(w, r)
	if !ok {
		return
	}

	if err := h.tasks.UpdateTask(r.Context(), id, input); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	log.Printf("[info] task %d deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *service.PersistenceError
	switch {
	case errors.Is(err, service.ErrNotFound):
		log.Printf("[info] %s %s: %v", r.Method, r.URL.Path, err)
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, service.ErrEmptyDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &perr):
		log.Printf("[error] %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, perr.Error())
	default:
		log.Printf("[error] %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func writeList(w http.ResponseWriter, r *http.Request, tasks []model.Task, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func taskID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return uint(id), true
}

// taskRequest is the accepted body for create and update.
type taskRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Property1   string       `json:"property1"`
	Property2   string       `json:"property2"`
	Date        requestDate  `json:"date"`
	Status      model.Status `json:"status"`
}

// requestDate decodes the date layouts model.ParseDate understands.
type requestDate struct {
	time.Time
}

func (d *requestDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("date must be a string")
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	ts, err := model.ParseDate(raw)
	if err != nil {
		return err
	}
	d.Time = ts
	return nil
}

func decodeTask(w http.ResponseWriter, r *http.Request) (model.Task, bool) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return model.Task{}, false
	}
	return model.Task{
		Title:       req.Title,
		Description: req.Description,
		Property1:   req.Property1,
		Property2:   req.Property2,
		Date:        req.Date.Time,
		Status:      req.Status,
	}, true
}
