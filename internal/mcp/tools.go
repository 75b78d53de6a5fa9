package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/ironlog/internal/format"
	"github.com/meltforce/ironlog/internal/models"
)

// defaultTimeRange returns start/end, defaulting end to now and start to
// span before end.
func defaultTimeRange(startStr, endStr string, span time.Duration) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.Add(-span)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var toolGetActiveWorkout = mcp.NewTool("get_active_workout",
	mcp.WithDescription("The lifting workout currently in progress: exercises, prescribed and completed sets, previous sets per exercise, total volume and percent progress. Returns active=false when no workout is running."),
)

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("Completed workouts, most recent first, with template name and total volume."),
	mcp.WithNumber("limit", mcp.Description("Maximum workouts to return. Defaults to 20.")),
)

var toolGetWorkoutDetail = mcp.NewTool("get_workout_detail",
	mcp.WithDescription("One completed workout with every exercise and set, including skipped sets."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout ID (UUID) from get_workout_history")),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("The most recent completed sets of one exercise across completed workouts, newest workout first."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID (UUID) or name (partial match, e.g. 'bench')")),
)

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Search the exercise catalog by name. Without a query, lists the whole catalog."),
	mcp.WithString("query", mcp.Description("Name fragment, case-insensitive")),
)

var toolListTemplates = mcp.NewTool("list_templates",
	mcp.WithDescription("Workout templates available to the user: built-in programs and the user's own."),
)

var toolGetRuns = mcp.NewTool("get_runs",
	mcp.WithDescription("Logged runs, most recent first, with distance, duration, pace, heart rate and terrain."),
	mcp.WithNumber("limit", mcp.Description("Maximum runs to return. Defaults to 20.")),
)

var toolGetTrainingStats = mcp.NewTool("get_training_stats",
	mcp.WithDescription("All-time totals: workouts, working sets, lifted volume, runs, run distance and time, per run type."),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Weekly or monthly training totals: workouts, working sets, reps, tonnage, runs and run distance per period."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 12 weeks ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 week'."), mcp.Enum(models.BucketWeek, models.BucketMonth)),
)

// --- Tool handlers ---

func (h *handlers) getActiveWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ds.ActiveWorkout(ctx, userID(ctx))
	if err != nil {
		h.log.Error("mcp get_active_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(snap)
}

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	workouts, err := h.ds.ListCompletedWorkouts(ctx, userID(ctx), limit)
	if err != nil {
		h.log.Error("mcp get_workout_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(workouts)
}

func (h *handlers) getWorkoutDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("workout_id")
	if err != nil {
		return mcp.NewToolResultError("workout_id parameter is required"), nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return mcp.NewToolResultError("workout_id must be a UUID"), nil
	}

	detail, err := h.ds.GetWorkoutDetail(ctx, userID(ctx), id)
	if err != nil {
		h.log.Error("mcp get_workout_detail", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(detail)
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	exerciseID := ref
	name := ref
	if _, err := uuid.Parse(ref); err != nil {
		matches, err := h.ds.SearchExercises(ctx, ref)
		if err != nil {
			h.log.Error("mcp get_exercise_history", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		if len(matches) == 0 {
			return mcp.NewToolResultError("no exercise matches " + ref), nil
		}
		exerciseID, name = matches[0].ID, matches[0].Name
	}

	sets, err := h.ds.ExerciseHistory(ctx, userID(ctx), exerciseID)
	if err != nil {
		h.log.Error("mcp get_exercise_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{
		"exercise_id": exerciseID,
		"exercise":    name,
		"sets":        sets,
	})
}

func (h *handlers) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var list []models.Exercise
	var err error
	if q := req.GetString("query", ""); q != "" {
		list, err = h.ds.SearchExercises(ctx, q)
	} else {
		list, err = h.ds.ListExercises(ctx)
	}
	if err != nil {
		h.log.Error("mcp search_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(list)
}

func (h *handlers) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.ds.ListTemplates(ctx, userID(ctx))
	if err != nil {
		h.log.Error("mcp list_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(list)
}

func (h *handlers) getRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := h.ds.ListRuns(ctx, userID(ctx), req.GetInt("limit", 20))
	if err != nil {
		h.log.Error("mcp get_runs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	views := make([]runView, len(runs))
	for i, r := range runs {
		views[i] = newRunView(r)
	}
	return jsonResult(views)
}

// runView adds display strings so clients need not convert units.
type runView struct {
	models.Run
	Distance string `json:"distance"`
	Duration string `json:"duration"`
	Pace     string `json:"pace,omitempty"`
}

func newRunView(r models.Run) runView {
	v := runView{
		Run:      r,
		Distance: format.Distance(r.DistanceMeters),
		Duration: format.Clock(r.DurationSeconds),
	}
	if r.PaceSecondsPerKm != nil {
		v.Pace = format.Pace(*r.PaceSecondsPerKm)
	}
	return v
}

func (h *handlers) getTrainingStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetTrainingStats(ctx, userID(ctx))
	if err != nil {
		h.log.Error("mcp get_training_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 12*7*24*time.Hour)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bucket := req.GetString("bucket", models.BucketWeek)
	if bucket != models.BucketWeek && bucket != models.BucketMonth {
		return mcp.NewToolResultError("bucket must be '1 week' or '1 month'"), nil
	}

	periods, err := h.ds.GetTrainingSummary(ctx, userID(ctx), start, end, bucket)
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(periods)
}
