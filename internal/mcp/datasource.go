package mcp

import (
	"context"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/session"
	"github.com/meltforce/ironlog/internal/sqlitestore"
	"github.com/meltforce/ironlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Local (in-process store
// and session registry) and HTTPClient (remote via REST API) satisfy it.
type DataSource interface {
	ActiveWorkout(ctx context.Context, userID string) (*session.Snapshot, error)
	ListCompletedWorkouts(ctx context.Context, userID string, limit int) ([]models.Workout, error)
	GetWorkoutDetail(ctx context.Context, userID, workoutID string) (*models.WorkoutDetail, error)
	ExerciseHistory(ctx context.Context, userID, exerciseID string) ([]models.WorkoutSet, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	SearchExercises(ctx context.Context, q string) ([]models.Exercise, error)
	ListTemplates(ctx context.Context, userID string) ([]models.WorkoutTemplate, error)
	ListRuns(ctx context.Context, userID string, limit int) ([]models.Run, error)
	GetTrainingStats(ctx context.Context, userID string) (*models.TrainingStats, error)
	GetTrainingSummary(ctx context.Context, userID string, start, end time.Time, bucket string) ([]models.TrainingPeriod, error)
}

// Store is what Local needs from a data store.
type Store interface {
	session.Backend
	ListCompletedWorkouts(ctx context.Context, userID string, limit int) ([]models.Workout, error)
	GetWorkoutDetail(ctx context.Context, userID, workoutID string) (*models.WorkoutDetail, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	SearchExercises(ctx context.Context, q string) ([]models.Exercise, error)
	ListTemplates(ctx context.Context, userID string) ([]models.WorkoutTemplate, error)
	ListRuns(ctx context.Context, userID string, limit int) ([]models.Run, error)
	GetTrainingStats(ctx context.Context, userID string) (*models.TrainingStats, error)
	GetTrainingSummary(ctx context.Context, userID string, start, end time.Time, bucket string) ([]models.TrainingPeriod, error)
}

var (
	_ Store      = (*storage.DB)(nil)
	_ Store      = (*sqlitestore.Store)(nil)
	_ DataSource = (*Local)(nil)
)

// Local serves MCP tools from the server's own store. It shares the session
// registry with the HTTP API so both see the same active workout.
type Local struct {
	Store
	sessions *session.Registry
}

// NewLocal creates a Local over store and sessions.
func NewLocal(store Store, sessions *session.Registry) *Local {
	return &Local{Store: store, sessions: sessions}
}

func (l *Local) ActiveWorkout(ctx context.Context, userID string) (*session.Snapshot, error) {
	snap, err := l.sessions.Snapshot(session.WithUserID(ctx, userID))
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (l *Local) ExerciseHistory(ctx context.Context, userID, exerciseID string) ([]models.WorkoutSet, error) {
	return session.PreviousSets(ctx, l.Store, exerciseID, userID)
}
