package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"task-organizer/internal/model"
)

var statusIcons = map[model.Status]string{
	model.StatusPending:    "🕒",
	model.StatusInProgress: "🔧",
	model.StatusCompleted:  "✅",
}

// DigestService builds the daily summary of tasks due on a given day.
type DigestService struct {
	tasks *TaskService
}

func NewDigestService(tasks *TaskService) *DigestService {
	return &DigestService{tasks: tasks}
}

// Summary renders the tasks dated on now's calendar day as Telegram HTML.
func (s *DigestService) Summary(ctx context.Context, now time.Time) (string, error) {
	tasks, err := s.tasks.ListByDate(ctx, now)
	if err != nil {
		return "", fmt.Errorf("list tasks for digest: %w", err)
	}

	grouped := make(map[model.Status][]model.Task)
	for _, task := range tasks {
		grouped[task.Status] = append(grouped[task.Status], task)
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Tarefas do dia</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("02/01/2006")))

	if len(tasks) == 0 {
		builder.WriteString("\n— nenhuma tarefa para hoje\n")
		return strings.TrimSpace(builder.String()), nil
	}

	for _, status := range model.Statuses() {
		group := grouped[status]
		if len(group) == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("\n%s <b>%s</b> (%d)\n", statusIcons[status], status, len(group)))
		for _, task := range group {
			builder.WriteString(formatTask(task))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatTask(task model.Task) string {
	var sb strings.Builder

	title := strings.TrimSpace(task.Title)
	if title == "" {
		title = fmt.Sprintf("Tarefa #%d", task.ID)
	}
	sb.WriteString(fmt.Sprintf("• #%d %s", task.ID, html.EscapeString(title)))

	if hh, mm, _ := task.Date.Clock(); hh != 0 || mm != 0 {
		sb.WriteString(fmt.Sprintf(" · %02d:%02d", hh, mm))
	}

	if desc := strings.TrimSpace(task.Description); desc != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(desc)))
	}

	sb.WriteByte('\n')
	return sb.String()
}
