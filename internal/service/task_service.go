package service

import (
	"context"
	"errors"
	"time"

	"task-organizer/internal/model"
	"task-organizer/internal/repository"
)

// ErrEmptyDate rejects a task whose date was not provided.
var ErrEmptyDate = errors.New("task date cannot be empty")

// ErrNotFound is returned when the requested task does not exist.
var ErrNotFound = repository.ErrNotFound

// PersistenceError reports a failed write. The message carries the store's own
// error text unchanged.
type PersistenceError struct {
	Action string
	Err    error
}

func (e *PersistenceError) Error() string {
	return "an error occurred while " + e.Action + " the task: " + rootCause(e.Err).Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// TaskStore is the persistence gateway the service works against.
type TaskStore interface {
	FindByID(ctx context.Context, id uint) (*model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	ListByTitle(ctx context.Context, substr string) ([]model.Task, error)
	ListByDate(ctx context.Context, from, to time.Time) ([]model.Task, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	UpdateFields(ctx context.Context, task *model.Task, fields ...string) error
	Delete(ctx context.Context, task *model.Task) error
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store TaskStore
}

func NewTaskService(store TaskStore) *TaskService {
	return &TaskService{store: store}
}

func (s *TaskService) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	return s.store.FindByID(ctx, id)
}

func (s *TaskService) ListAll(ctx context.Context) ([]model.Task, error) {
	return s.store.List(ctx)
}

func (s *TaskService) ListByTitle(ctx context.Context, substr string) ([]model.Task, error) {
	return s.store.ListByTitle(ctx, substr)
}

// ListByDate returns the tasks falling on the calendar day of date; time of day is ignored.
func (s *TaskService) ListByDate(ctx context.Context, date time.Time) ([]model.Task, error) {
	from, to := model.DayRange(model.Floating(date))
	return s.store.ListByDate(ctx, from, to)
}

func (s *TaskService) ListByStatus(ctx context.Context, status model.Status) ([]model.Task, error) {
	return s.store.ListByStatus(ctx, status)
}

// CreateTask persists input as a new task. The id is always assigned by the store.
func (s *TaskService) CreateTask(ctx context.Context, input model.Task) (*model.Task, error) {
	input.Date = model.Floating(input.Date)
	if input.Date.IsZero() {
		return nil, ErrEmptyDate
	}

	task := input
	task.ID = 0
	task.CreatedAt = time.Time{}
	task.UpdatedAt = time.Time{}

	if err := s.store.Create(ctx, &task); err != nil {
		return nil, &PersistenceError{Action: "creating", Err: err}
	}
	return &task, nil
}

// UpdateTask copies the generic payload fields of input onto the stored task.
// Title, description, date and status are left as stored.
func (s *TaskService) UpdateTask(ctx context.Context, id uint, input model.Task) error {
	task, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if model.Floating(input.Date).IsZero() {
		return ErrEmptyDate
	}

	task.Property1 = input.Property1
	task.Property2 = input.Property2

	if err := s.store.UpdateFields(ctx, task, "property1", "property2"); err != nil {
		return &PersistenceError{Action: "updating", Err: err}
	}
	return nil
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(ctx context.Context, id uint) error {
	task, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, task); err != nil {
		return &PersistenceError{Action: "deleting", Err: err}
	}
	return nil
}
