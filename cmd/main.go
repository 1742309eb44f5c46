// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"eliza_tutor/internal/config"
	"eliza_tutor/internal/handlers"
	"eliza_tutor/internal/llm"
	"eliza_tutor/internal/middleware"
	"eliza_tutor/internal/rag"
	"eliza_tutor/internal/repository"
	"eliza_tutor/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Single learner per device; the API carries no account concept.
const localUserID = "local"

func main() {
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)

	if err := config.LoadConfig("./configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...")

	db, err := repository.NewDB(config.Cfg.Database.Path, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// Dependency injection.
	notifier := repository.NewNotifier()
	courseRepo := repository.NewGormCourseRepository(notifier)
	chatRepo := repository.NewGormChatRepository(notifier)
	progressRepo := repository.NewGormProgressRepository(notifier)

	inference := llm.NewOllamaClient(
		config.Cfg.Inference.URL,
		config.Cfg.Inference.Model,
		time.Duration(config.Cfg.Inference.TimeoutSeconds)*time.Second,
	)
	factory := rag.NewProviderFactory(db, courseRepo, progressRepo, localUserID, config.Cfg.Chat.ContextBudgetChars)

	courseService := service.NewCourseService(db, courseRepo, progressRepo, localUserID)
	progressService := service.NewProgressService(db, courseRepo, progressRepo, localUserID)
	chatService := service.NewChatService(db, chatRepo, progressRepo, factory, inference, localUserID, config.Cfg.Chat.HistoryWindow)

	courseHandler := handlers.NewCourseHandler(courseService)
	progressHandler := handlers.NewProgressHandler(progressService)
	chatHandler := handlers.NewChatHandler(chatService)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	// Local UI origins only; nothing here is reachable off the device.
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(corsHandler.Handler)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/courses", func(r chi.Router) {
			r.Post("/", courseHandler.ImportCourse)
			r.Get("/", courseHandler.ListCourses)
			r.Get("/{course_id}", courseHandler.GetCourse)
			r.Delete("/{course_id}", courseHandler.DeleteCourse)
			r.Get("/{course_id}/lessons", courseHandler.ListLessons)
			r.Get("/{course_id}/progress", progressHandler.GetCourseProgress)
		})

		r.Route("/lessons", func(r chi.Router) {
			r.Get("/{lesson_id}", courseHandler.GetLesson)
			r.Get("/{lesson_id}/exercises", courseHandler.ListExercises)
			r.Get("/{lesson_id}/progress", progressHandler.GetLessonProgress)
			r.Post("/{lesson_id}/read", progressHandler.MarkLessonRead)
		})

		r.Route("/exercises", func(r chi.Router) {
			r.Get("/{exercise_id}", courseHandler.GetExercise)
			r.Post("/{exercise_id}/trials", courseHandler.CreateTrial)
		})
		r.Get("/trials/{trial_id}", courseHandler.GetTrial)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/messages", chatHandler.SendMessage)
			r.Get("/sessions", chatHandler.ListSessions)
			r.Route("/sessions/{session_id}", func(r chi.Router) {
				r.Get("/", chatHandler.GetSession)
				r.Get("/messages", chatHandler.GetMessages)
				r.Get("/watch", chatHandler.WatchMessages)
				r.Post("/cancel", chatHandler.CancelGeneration)
				r.Post("/deactivate", chatHandler.DeactivateSession)
				r.Delete("/", chatHandler.DeleteSession)
			})
			r.Post("/image-problems", chatHandler.SaveImageProblem)
			r.Get("/image-problems/{problem_id}", chatHandler.GetImageProblem)
		})

		r.Route("/progress", func(r chi.Router) {
			r.Post("/answers", progressHandler.SubmitAnswer)
			r.Post("/study-sessions", progressHandler.StartStudySession)
			r.Post("/study-sessions/end", progressHandler.EndStudySession)
			r.Get("/stats", progressHandler.GetStats)
			r.Get("/weekly", progressHandler.GetWeeklyProgress)
			r.Get("/achievements", progressHandler.GetAchievements)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := sqlDB.PingContext(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:        config.Cfg.Server.Port,
		Handler:     r,
		ReadTimeout: 5 * time.Second,
		// Write timeout is deliberately absent: chat turns stream for as
		// long as the inference timeout allows.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
