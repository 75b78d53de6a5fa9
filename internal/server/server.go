package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/ironlog/internal/auth"
	"github.com/meltforce/ironlog/internal/events"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/observability"
	"github.com/meltforce/ironlog/internal/session"
	"github.com/meltforce/ironlog/internal/sqlitestore"
	"github.com/meltforce/ironlog/internal/storage"
)

// Store is the data layer behind the API. Both *storage.DB (PostgreSQL) and
// *sqlitestore.Store satisfy it.
type Store interface {
	session.Backend
	auth.UserStore

	ListExercises(ctx context.Context) ([]models.Exercise, error)
	SearchExercises(ctx context.Context, q string) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, in models.ExerciseInput) (*models.Exercise, error)
	DeleteExercise(ctx context.Context, id string) error

	ListTemplates(ctx context.Context, userID string) ([]models.WorkoutTemplate, error)
	GetTemplateDetail(ctx context.Context, userID, id string) (*models.TemplateDetail, error)
	CreateTemplate(ctx context.Context, userID string, in models.TemplateInput) (*models.WorkoutTemplate, error)
	UpdateTemplate(ctx context.Context, userID, id string, u models.TemplateUpdate) (*models.WorkoutTemplate, error)
	DeleteTemplate(ctx context.Context, userID, id string) error
	AddTemplateExercise(ctx context.Context, userID, templateID string, in models.TemplateExerciseInput) (*models.TemplateExercise, error)
	RemoveTemplateExercise(ctx context.Context, userID, templateID, id string) error

	CreateRun(ctx context.Context, userID string, in models.RunInput) (*models.Run, error)
	GetRun(ctx context.Context, userID, id string) (*models.Run, error)
	ListRuns(ctx context.Context, userID string, limit int) ([]models.Run, error)
	UpdateRun(ctx context.Context, userID, id string, u models.RunUpdate) (*models.Run, error)
	DeleteRun(ctx context.Context, userID, id string) error

	ListCompletedWorkouts(ctx context.Context, userID string, limit int) ([]models.Workout, error)
	GetWorkoutDetail(ctx context.Context, userID, workoutID string) (*models.WorkoutDetail, error)
	DeleteWorkout(ctx context.Context, userID, workoutID string) error

	GetTrainingStats(ctx context.Context, userID string) (*models.TrainingStats, error)
	GetTrainingSummary(ctx context.Context, userID string, start, end time.Time, bucket string) ([]models.TrainingPeriod, error)
}

var (
	_ Store = (*storage.DB)(nil)
	_ Store = (*sqlitestore.Store)(nil)
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    Store
	sessions *session.Registry
	events   events.Publisher
	identity func(http.Handler) http.Handler
	log      *slog.Logger
	router   chi.Router

	// publishTimeout bounds how long an event write may hold a response.
	publishTimeout time.Duration
}

// New creates a new Server with all routes configured. Every /api/v1 route
// runs as the user named by id.
func New(store Store, id auth.Identifier, publisher events.Publisher, log *slog.Logger) *Server {
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &Server{
		store:          store,
		sessions:       session.NewRegistry(store),
		events:         publisher,
		identity:       auth.Middleware(id, store, log),
		log:            log,
		router:         chi.NewRouter(),
		publishTimeout: defaultPublishTimeout,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the registry of active workouts, shared with the MCP server.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// SetMCP mounts a streamable MCP handler at /mcp behind the identity middleware.
func (s *Server) SetMCP(h http.Handler) {
	s.router.With(s.identity).Handle("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(observability.Middleware)
	s.router.Use(CORS)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Handle("/metrics", observability.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/me", s.handleMe)
		r.Get("/catalog", s.handleCatalog)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/start", s.handleStartSession)
			r.Post("/resume", s.handleResumeSession)
			r.Post("/finish", s.handleFinishSession)
			r.Post("/cancel", s.handleCancelSession)
			r.Post("/exercises", s.handleAddSessionExercise)
			r.Post("/exercises/{weID}/skip", s.handleSkipSets)
			r.Post("/exercises/{weID}/sets/{setID}/complete", s.handleCompleteSet)
			r.Post("/exercises/{weID}/sets/{setID}/confirm", s.handleConfirmSet)
		})

		r.Route("/exercises", func(r chi.Router) {
			r.Get("/", s.handleListExercises)
			r.Post("/", s.handleCreateExercise)
			r.Delete("/{id}", s.handleDeleteExercise)
			r.Get("/{id}/history", s.handleExerciseHistory)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleCreateTemplate)
			r.Get("/{id}", s.handleGetTemplate)
			r.Patch("/{id}", s.handleUpdateTemplate)
			r.Delete("/{id}", s.handleDeleteTemplate)
			r.Post("/{id}/exercises", s.handleAddTemplateExercise)
			r.Delete("/{id}/exercises/{teID}", s.handleRemoveTemplateExercise)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Post("/", s.handleCreateRun)
			r.Get("/{id}", s.handleGetRun)
			r.Patch("/{id}", s.handleUpdateRun)
			r.Delete("/{id}", s.handleDeleteRun)
		})

		r.Route("/history/workouts", func(r chi.Router) {
			r.Get("/", s.handleListHistory)
			r.Get("/{id}", s.handleGetHistoryWorkout)
			r.Delete("/{id}", s.handleDeleteHistoryWorkout)
		})

		r.Get("/stats", s.handleStats)
		r.Get("/stats/summary", s.handleTrainingSummary)
	})
}

const defaultPublishTimeout = 2 * time.Second

// publish sends an event without failing the request. The write is cut off
// after publishTimeout even if the broker is unreachable.
func (s *Server) publish(ctx context.Context, e events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("publish event failed", "type", e.Type, "error", err)
	}
}
