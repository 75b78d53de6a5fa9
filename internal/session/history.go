package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/meltforce/ironlog/internal/models"
)

// HistoryLimit bounds how many prior sets are fetched per exercise.
const HistoryLimit = 10

// PreviousSets returns the most recent completed sets the user performed for
// an exercise, newest workout first. Missing history is not an error.
func PreviousSets(ctx context.Context, b Backend, exerciseID, userID string) ([]models.WorkoutSet, error) {
	sets, err := b.PreviousSets(ctx, exerciseID, userID, HistoryLimit)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return []models.WorkoutSet{}, nil
		}
		return nil, fmt.Errorf("fetching previous sets for exercise %s: %w", exerciseID, err)
	}
	if len(sets) > HistoryLimit {
		sets = sets[:HistoryLimit]
	}
	if sets == nil {
		sets = []models.WorkoutSet{}
	}
	return sets, nil
}

// seedTarget picks the target weight and reps for set number n (1-based):
// the actual values of the n-th previous set when present, else the fallback.
func seedTarget(previous []models.WorkoutSet, n int, weight *float64, reps int) (*float64, *int) {
	if n-1 < len(previous) {
		prev := previous[n-1]
		w, r := weight, &reps
		if prev.ActualWeight != nil {
			w = prev.ActualWeight
		}
		if prev.ActualReps != nil {
			r = prev.ActualReps
		}
		return clonef(w), clonei(r)
	}
	return clonef(weight), clonei(&reps)
}

func clonef(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func clonei(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
