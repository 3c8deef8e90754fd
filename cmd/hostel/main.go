package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/hostel-desk/internal/application"
	"github.com/example/hostel-desk/internal/config"
	httptransport "github.com/example/hostel-desk/internal/http"
	"github.com/example/hostel-desk/internal/persistence/sqlite"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		bootLogger.Error("failed to read .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx, logger); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	app := newApplication(cfg, storage, logger, time.Now)

	if cfg.AbsenceSweepCron != "" {
		sweeper, err := startAbsenceSweep(ctx, cfg.AbsenceSweepCron, app.attendance, logger)
		if err != nil {
			logger.Error("invalid absence sweep schedule", "error", err, "schedule", cfg.AbsenceSweepCron)
			os.Exit(1)
		}
		defer func() { <-sweeper.Stop().Done() }()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("hostel API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// hostelApp bundles the HTTP handler with the services background jobs need.
type hostelApp struct {
	handler    http.Handler
	attendance *application.AttendanceService
}

func newApplication(cfg config.Config, storage *sqlite.Storage, logger *slog.Logger, now func() time.Time) hostelApp {
	idGenerator := uuid.NewString
	hasher := application.NewPasswordHasher(application.HashAlgorithm(cfg.PasswordHash), cfg.BcryptCost)
	tokens := application.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, now)

	studentRepo := newStudentRepositoryAdapter(storage.Students)
	workerRepo := newWorkerRepositoryAdapter(storage.Workers)
	roomRepo := newRoomRepositoryAdapter(storage.Rooms)
	complaintRepo := newComplaintRepositoryAdapter(storage.Complaints)
	emergencyRepo := newEmergencyRepositoryAdapter(storage.Emergencies)
	notificationRepo := newNotificationRepositoryAdapter(storage.Notifications)
	attendanceRepo := newAttendanceRepositoryAdapter(storage.Attendance)
	credentials := newCredentialStoreAdapter(storage.Students, storage.Admins, storage.Workers)

	notificationService := application.NewNotificationServiceWithLogger(notificationRepo, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(credentials, studentRepo, tokens, hasher, idGenerator, now, logger)
	studentService := application.NewStudentServiceWithLogger(studentRepo, hasher.Hash, idGenerator, now, logger)
	workerService := application.NewWorkerServiceWithLogger(workerRepo, hasher.Hash, idGenerator, now, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, studentRepo, now, logger)
	complaintService := application.NewComplaintServiceWithLogger(complaintRepo, workerRepo, notificationService, idGenerator, now, logger)
	emergencyService := application.NewEmergencyServiceWithLogger(emergencyRepo, notificationService, idGenerator, now, logger)
	attendanceService := application.NewAttendanceServiceWithLogger(attendanceRepo, workerRepo, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Students:      httptransport.NewStudentHandler(studentService, logger),
		Workers:       httptransport.NewWorkerHandler(workerService, complaintService, attendanceService, logger),
		Rooms:         httptransport.NewRoomHandler(roomService, logger),
		Complaints:    httptransport.NewComplaintHandler(complaintService, logger),
		Emergencies:   httptransport.NewEmergencyHandler(emergencyService, logger),
		Notifications: httptransport.NewNotificationHandler(notificationService, logger),
		Authenticator: authService,
		Metrics:       httptransport.NewMetrics(),
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
	})

	return hostelApp{handler: router, attendance: attendanceService}
}

type absenceSweeper interface {
	SweepAbsences(ctx context.Context) (int, error)
}

// startAbsenceSweep schedules sweeper on the cron schedule and starts the cron runner.
// Jobs share ctx, so an in-flight sweep stops with the process.
func startAbsenceSweep(ctx context.Context, schedule string, sweeper absenceSweeper, logger *slog.Logger) (*cron.Cron, error) {
	runner := cron.New()
	_, err := runner.AddFunc(schedule, func() {
		created, err := sweeper.SweepAbsences(ctx)
		if err != nil {
			logger.Error("absence sweep failed", "error", err)
			return
		}
		logger.Info("absence sweep finished", "created", created)
	})
	if err != nil {
		return nil, err
	}
	runner.Start()
	return runner, nil
}
