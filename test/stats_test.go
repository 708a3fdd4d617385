package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/periolifts/periolifts/internal/middleware"
	"github.com/periolifts/periolifts/internal/stats"
	"github.com/periolifts/periolifts/internal/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) completedWorkout(userID string, completedAt time.Time) workouts.Workout {
	startedAt := completedAt.Add(-time.Hour)
	workout := randomWorkout(userID, startedAt)
	workout.Status = workouts.StatusCompleted
	workout.StartedAt = &startedAt
	workout.CompletedAt = &completedAt
	for i := range workout.Exercises {
		for j := range workout.Exercises[i].Sets {
			workout.Exercises[i].Sets[j].Completed = true
			workout.Exercises[i].Sets[j].ActualReps = workout.Exercises[i].Sets[j].TargetReps
			workout.Exercises[i].Sets[j].ActualKilos = workout.Exercises[i].Sets[j].TargetKilos
		}
	}
	return workout
}

func (s *IntegrationTestSuite) getStatsHistoryRequest(
	ctx context.Context,
	token string,
	query string,
) stats.HistoryStats {
	url := fmt.Sprintf("%s/stats/history", serverEndpoint)
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var historyStats stats.HistoryStats
	require.NoError(s.T(), json.Unmarshal(respBytes, &historyStats))
	return historyStats
}

func (s *IntegrationTestSuite) TestStats_History() {
	ctx := context.Background()
	s.deleteAllWorkouts(ctx)
	token := doLogin(ctx, s.T())

	now := time.Now()
	// three completed workouts on consecutive days, plus one abandoned
	s.addWorkoutRequest(ctx, token, s.completedWorkout("gym-rat", now))
	s.addWorkoutRequest(ctx, token, s.completedWorkout("gym-rat", now.AddDate(0, 0, -1)))
	s.addWorkoutRequest(ctx, token, s.completedWorkout("gym-rat", now.AddDate(0, 0, -2)))

	abandoned := randomWorkout("gym-rat", now.AddDate(0, 0, -3))
	abandoned.Status = workouts.StatusAbandoned
	s.addWorkoutRequest(ctx, token, abandoned)

	historyStats := s.getStatsHistoryRequest(ctx, token, "user=gym-rat")

	assert.Equal(s.T(), 4, historyStats.TotalWorkouts)
	assert.Equal(s.T(), 3, historyStats.CompletedWorkouts)
	assert.InDelta(s.T(), 75.0, historyStats.CompletionRate, 0.001)
	// 3 workouts x (2x5x80 + 1x8x40) kilos
	assert.InDelta(s.T(), 3360.0, historyStats.TotalKilosLifted, 0.001)
	assert.Equal(s.T(), 3, historyStats.ExerciseFrequency["bench press"])
	assert.Equal(s.T(), 3, historyStats.ExerciseFrequency["overhead press"])
	assert.Equal(s.T(), 3, historyStats.CurrentStreak)
	assert.Equal(s.T(), 3, historyStats.LongestStreak)
	assert.Equal(s.T(), 3*time.Hour, historyStats.TotalDuration)
	assert.Equal(s.T(), time.Hour, historyStats.AvgDuration)
}

func (s *IntegrationTestSuite) TestStats_HistoryScopedByDateRange() {
	ctx := context.Background()
	s.deleteAllWorkouts(ctx)
	token := doLogin(ctx, s.T())

	now := time.Now()
	s.addWorkoutRequest(ctx, token, s.completedWorkout("gym-rat", now))
	s.addWorkoutRequest(ctx, token, s.completedWorkout("gym-rat", now.AddDate(0, -2, 0)))

	query := fmt.Sprintf(
		"user=gym-rat&from=%s&to=%s",
		now.AddDate(0, -1, 0).Format(time.RFC3339),
		now.Add(time.Hour).Format(time.RFC3339),
	)
	historyStats := s.getStatsHistoryRequest(ctx, token, query)
	assert.Equal(s.T(), 1, historyStats.TotalWorkouts)
	assert.Equal(s.T(), 1, historyStats.CompletedWorkouts)
}

func (s *IntegrationTestSuite) TestStats_Calendar() {
	ctx := context.Background()
	s.deleteAllWorkouts(ctx)
	token := doLogin(ctx, s.T())

	day := time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC)
	s.addWorkoutRequest(ctx, token, s.completedWorkout("gym-rat", day))
	s.addWorkoutRequest(ctx, token, s.completedWorkout("gym-rat", day.Add(2*time.Hour)))
	s.addWorkoutRequest(ctx, token, randomWorkout("gym-rat", day.AddDate(0, 0, 1)))

	query := fmt.Sprintf(
		"user=gym-rat&from=%s&to=%s",
		day.AddDate(0, 0, -1).Format(time.RFC3339),
		day.AddDate(0, 0, 2).Format(time.RFC3339),
	)
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/stats/calendar?%s", serverEndpoint, query),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var calendarResp stats.CalendarResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &calendarResp))
	require.Len(s.T(), calendarResp.Days, 2)
	assert.Len(s.T(), calendarResp.Days["2024-05-15"], 2)
	assert.Len(s.T(), calendarResp.Days["2024-05-16"], 1)
}
