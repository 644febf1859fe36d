package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/examtrack/examtrack-backend/internal/broadcast"
	"github.com/examtrack/examtrack-backend/internal/config"
	"github.com/examtrack/examtrack-backend/internal/database"
	"github.com/examtrack/examtrack-backend/internal/grading"
	"github.com/examtrack/examtrack-backend/internal/handler"
	"github.com/examtrack/examtrack-backend/internal/logger"
	"github.com/examtrack/examtrack-backend/internal/proctor"
	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/examtrack/examtrack-backend/internal/router"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/examtrack/examtrack-backend/internal/validator"
	"github.com/examtrack/examtrack-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExamTrack Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	assessmentRepo := repository.NewAssessmentRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	eventRepo := repository.NewProctorEventRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	gradingRepo := repository.NewGradingRepository(pool)

	// ─── Initialize Grading Queue ──────────────────────────────────────
	var scorer grading.Scorer
	if cfg.OpenAIAPIKey != "" {
		scorer, err = grading.NewOpenAIScorer(grading.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize scorer")
		}
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, essays will stay ungraded")
		scorer = grading.NoopScorer{}
	}

	gradingQueue := worker.NewGradingQueue(
		answerRepo, attemptRepo, gradingRepo, scorer,
		cfg.GradingConcurrency, cfg.ScoringTimeout, log,
	)

	if cfg.RecoverOnStart {
		if err := gradingQueue.RecoverUngraded(ctx); err != nil {
			log.Warn().Err(err).Msg("Grading recovery scan failed")
		}
	}

	// ─── Initialize Services ──────────────────────────────────────────
	tokenService := service.NewTokenService(cfg)
	broadcaster := broadcast.NewBroadcaster(rdb, log)
	dedup := proctor.NewDeduplicator(cfg.DedupWindow, cfg.DedupMaxEntries, cfg.DedupRetention)

	admissionService, err := service.NewAdmissionService(assessmentRepo, attemptRepo, tokenService, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize admission service")
	}
	sessionService := service.NewAttemptSessionService(
		attemptRepo, assessmentRepo, questionRepo, answerRepo,
		participantRepo, gradingQueue, rdb, cfg, log,
	)
	proctorService := service.NewProctorService(
		eventRepo, attemptRepo, participantRepo, broadcaster, dedup, log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Room:      handler.NewRoomHandler(admissionService),
		Attempt:   handler.NewAttemptHandler(sessionService),
		Proctor:   handler.NewProctorHandler(proctorService),
		MonitorWS: handler.NewMonitorWSHandler(broadcaster, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(tokenService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Let in-flight grading jobs finish; the volatile queue loses
	// anything that has not started, which the recovery scan picks up.
	done := make(chan struct{})
	go func() {
		gradingQueue.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Grading queue drain timed out")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
