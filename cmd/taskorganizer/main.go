package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"task-organizer/internal/bot"
	"task-organizer/internal/config"
	"task-organizer/internal/handler"
	"task-organizer/internal/repository"
	"task-organizer/internal/service"
)

const jobTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}

	if err := run(context.Background(), cfg, ln); err != nil {
		log.Fatalf("[error] %v", err)
	}
	log.Println("[info] shutdown complete")
}

// run serves on ln until ctx is cancelled or the process gets a shutdown signal,
// then stops the server, the scheduler and the database in that order.
func run(ctx context.Context, cfg config.Config, ln net.Listener) error {
	db, err := repository.NewDB(cfg)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("db: %w", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	taskSvc := service.NewTaskService(taskRepo)

	server := &http.Server{
		Handler:           handler.NewRouter(handler.NewTaskHandler(taskSvc), taskRepo, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler := service.NewSchedulerService(time.Local, jobTimeout)
	if cfg.DigestEnabled() {
		if err := scheduleDigest(cfg, scheduler, taskSvc); err != nil {
			_ = ln.Close()
			_ = sqlDB.Close()
			return err
		}
	}

	trigger, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[info] task organizer listening on %s", ln.Addr())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
			cancel()
		}
	}()

	stopErr := make(chan error, 1)
	wait := gfshutdown.GracefulShutdown(trigger, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"task-organizer": func(ctx context.Context) error {
			err := stopInOrder(ctx,
				step{"http server", server.Shutdown},
				step{"scheduler", scheduler.Stop},
				step{"database", func(context.Context) error { return sqlDB.Close() }},
			)
			stopErr <- err
			return err
		},
	})

	var errs []error
	if code := <-wait; code != 0 {
		errs = append(errs, fmt.Errorf("shutdown exceeded %s", cfg.ShutdownTimeout))
	}
	select {
	case err := <-serveErr:
		errs = append(errs, err)
	default:
	}
	select {
	case err := <-stopErr:
		errs = append(errs, err)
	default:
	}
	return errors.Join(errs...)
}

func scheduleDigest(cfg config.Config, scheduler *service.SchedulerService, tasks *service.TaskService) error {
	notifier, err := bot.New(cfg.TelegramToken, cfg.TelegramChatID, service.NewDigestService(tasks))
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	id, err := scheduler.ScheduleDaily("digest", cfg.DigestTime, notifier.SendDigest)
	if err != nil {
		return fmt.Errorf("schedule digest: %w", err)
	}
	scheduler.Start()
	log.Printf("[info] daily digest scheduled, next run at %s", scheduler.Next(id).Format(time.RFC3339))
	return nil
}

type step struct {
	name string
	stop func(ctx context.Context) error
}

// stopInOrder runs every step even when an earlier one fails.
func stopInOrder(ctx context.Context, steps ...step) error {
	var errs []error
	for _, s := range steps {
		if err := s.stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		log.Printf("[info] %s stopped", s.name)
	}
	return errors.Join(errs...)
}
