package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meltforce/ironlog/internal/models"
)

func TestPreviousSetsMissingHistoryIsEmpty(t *testing.T) {
	b := newFakeBackend()
	got, err := PreviousSets(context.Background(), b, "bench", testUser)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	b.failOn("PreviousSets", 2, models.ErrNotFound)
	got, err = PreviousSets(context.Background(), b, "bench", testUser)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPreviousSetsPropagatesBackendErrors(t *testing.T) {
	b := newFakeBackend()
	boom := errors.New("timeout")
	b.failOn("PreviousSets", 1, boom)

	_, err := PreviousSets(context.Background(), b, "bench", testUser)
	assert.ErrorIs(t, err, boom)
}

func TestPreviousSetsBoundedAndMostRecentFirst(t *testing.T) {
	m, b, ctx := newTestManager(t)
	tpl := b.addTemplate(testUser, "Bench day", 6, 5, nil, "bench")

	for round := 0; round < 2; round++ {
		require.NoError(t, m.StartFromTemplate(ctx, tpl))
		completeFirst(t, ctx, m, 6, 100+float64(round)*10, 5)
		_, err := m.Finish(ctx)
		require.NoError(t, err)
	}

	got, err := PreviousSets(ctx, b, "bench", testUser)
	require.NoError(t, err)
	require.Len(t, got, HistoryLimit)
	for i := 0; i < 6; i++ {
		assert.Equal(t, 110.0, *got[i].ActualWeight, "newest workout first")
	}
	for i := 6; i < HistoryLimit; i++ {
		assert.Equal(t, 100.0, *got[i].ActualWeight)
	}

	other, err := PreviousSets(ctx, b, "bench", "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSeedTarget(t *testing.T) {
	w := 100.0
	prevWeight, prevReps := 120.0, 4
	previous := []models.WorkoutSet{
		{SetNumber: 1, ActualWeight: &prevWeight, ActualReps: &prevReps},
		{SetNumber: 2, ActualReps: &prevReps},
	}

	tests := []struct {
		name       string
		n          int
		wantWeight *float64
		wantReps   int
	}{
		{"from history", 1, &prevWeight, 4},
		{"history without weight keeps default", 2, &w, 4},
		{"beyond history", 3, &w, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotW, gotR := seedTarget(previous, tt.n, &w, 5)
			require.NotNil(t, gotW)
			assert.Equal(t, *tt.wantWeight, *gotW)
			assert.Equal(t, tt.wantReps, *gotR)
		})
	}

	gotW, gotR := seedTarget(nil, 1, nil, 8)
	assert.Nil(t, gotW)
	assert.Equal(t, 8, *gotR)
}
