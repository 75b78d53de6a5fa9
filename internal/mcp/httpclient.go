package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/session"
)

// HTTPClient implements DataSource by calling the ironlog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server. The server identifies the caller, so
// the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. A
// non-empty token is sent as a bearer token.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// bucketToParam maps summary bucket values to the REST bucket parameter.
func bucketToParam(bucket string) string {
	if bucket == models.BucketMonth {
		return "month"
	}
	return "week"
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, models.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func limitParams(limit int) url.Values {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return v
}

func (c *HTTPClient) ActiveWorkout(ctx context.Context, _ string) (*session.Snapshot, error) {
	var snap session.Snapshot
	if err := c.get(ctx, "/api/v1/session", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *HTTPClient) ListCompletedWorkouts(ctx context.Context, _ string, limit int) ([]models.Workout, error) {
	var workouts []models.Workout
	if err := c.get(ctx, "/api/v1/history/workouts", limitParams(limit), &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) GetWorkoutDetail(ctx context.Context, _ string, workoutID string) (*models.WorkoutDetail, error) {
	var detail models.WorkoutDetail
	if err := c.get(ctx, "/api/v1/history/workouts/"+url.PathEscape(workoutID), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *HTTPClient) ExerciseHistory(ctx context.Context, _ string, exerciseID string) ([]models.WorkoutSet, error) {
	var sets []models.WorkoutSet
	if err := c.get(ctx, "/api/v1/exercises/"+url.PathEscape(exerciseID)+"/history", nil, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	var list []models.Exercise
	if err := c.get(ctx, "/api/v1/exercises", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) SearchExercises(ctx context.Context, q string) ([]models.Exercise, error) {
	var list []models.Exercise
	if err := c.get(ctx, "/api/v1/exercises", url.Values{"q": {q}}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) ListTemplates(ctx context.Context, _ string) ([]models.WorkoutTemplate, error) {
	var list []models.WorkoutTemplate
	if err := c.get(ctx, "/api/v1/templates", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) ListRuns(ctx context.Context, _ string, limit int) ([]models.Run, error) {
	var runs []models.Run
	if err := c.get(ctx, "/api/v1/runs", limitParams(limit), &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (c *HTTPClient) GetTrainingStats(ctx context.Context, _ string) (*models.TrainingStats, error) {
	var stats models.TrainingStats
	if err := c.get(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) GetTrainingSummary(ctx context.Context, _ string, start, end time.Time, bucket string) ([]models.TrainingPeriod, error) {
	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))
	params.Set("bucket", bucketToParam(bucket))

	var periods []models.TrainingPeriod
	if err := c.get(ctx, "/api/v1/stats/summary", params, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}
