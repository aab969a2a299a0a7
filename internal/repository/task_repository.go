package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-organizer/internal/model"
)

// ErrNotFound is returned when no task matches the requested id.
var ErrNotFound = errors.New("task not found")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// TaskRepository is the gorm-backed store for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

// List returns every task in primary key order.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	return r.find(r.db.WithContext(ctx))
}

// ListByTitle returns tasks whose title contains substr. Matching follows the
// driver's LIKE semantics; wildcard characters in substr are matched literally.
func (r *TaskRepository) ListByTitle(ctx context.Context, substr string) ([]model.Task, error) {
	pattern := "%" + likeEscaper.Replace(substr) + "%"
	return r.find(r.db.WithContext(ctx).Where(`title LIKE ? ESCAPE '\'`, pattern))
}

// ListByDate returns tasks dated within [from, to).
func (r *TaskRepository) ListByDate(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	return r.find(r.db.WithContext(ctx).
		Where(clause.Gte{Column: "date", Value: from}).
		Where(clause.Lt{Column: "date", Value: to}))
}

func (r *TaskRepository) ListByStatus(ctx context.Context, status model.Status) ([]model.Task, error) {
	return r.find(r.db.WithContext(ctx).Where("status = ?", status))
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// UpdateFields writes only the named fields of task.
func (r *TaskRepository) UpdateFields(ctx context.Context, task *model.Task, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(task).Select(fields).Updates(task).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Delete(task).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Ping checks that the underlying connection is alive.
func (r *TaskRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *TaskRepository) find(query *gorm.DB) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := query.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}
