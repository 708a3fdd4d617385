package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/periolifts/periolifts/internal/middleware"
	"github.com/periolifts/periolifts/internal/workouts"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) deleteAllWorkouts(ctx context.Context) {
	_, err := s.dbPool.Exec(ctx, "DELETE FROM workout")
	require.NoError(s.T(), err)
}

func randomWorkout(userID string, scheduledAt time.Time) workouts.Workout {
	return workouts.Workout{
		UserID:      userID,
		Name:        gofakeit.HipsterSentence(3),
		Status:      workouts.StatusScheduled,
		ScheduledAt: scheduledAt,
		CreatedAt:   scheduledAt,
		Exercises: []workouts.ExerciseEntry{
			{
				Name: "bench press",
				Sets: []workouts.SetEntry{
					{TargetReps: 5, TargetKilos: 80, RestSeconds: 180},
					{TargetReps: 5, TargetKilos: 80, RestSeconds: 180},
				},
			},
			{
				Name: "overhead press",
				Sets: []workouts.SetEntry{
					{TargetReps: 8, TargetKilos: 40, RestSeconds: 120},
				},
			},
		},
	}
}

func (s *IntegrationTestSuite) addWorkoutRequest(
	ctx context.Context,
	token string,
	workout workouts.Workout,
) workouts.AddWorkoutResponse {
	workoutJson, err := json.Marshal(workout)
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/workouts", serverEndpoint),
		bytes.NewReader(workoutJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var addedWorkout workouts.AddWorkoutResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &addedWorkout))

	return addedWorkout
}

func (s *IntegrationTestSuite) getWorkoutRequest(
	ctx context.Context,
	token string,
	id int,
) (*workouts.Workout, int) {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/workouts/%d", serverEndpoint, id),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode
	}

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var workout workouts.Workout
	require.NoError(s.T(), json.Unmarshal(respBytes, &workout))
	return &workout, resp.StatusCode
}

func (s *IntegrationTestSuite) updateWorkoutRequest(
	ctx context.Context,
	token string,
	workout workouts.Workout,
) int {
	workoutJson, err := json.Marshal(workout)
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"PUT", fmt.Sprintf("%s/workouts", serverEndpoint),
		bytes.NewReader(workoutJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func (s *IntegrationTestSuite) listWorkoutsRequest(
	ctx context.Context,
	token string,
	page, size int,
	query string,
) workouts.ListResponse {
	url := fmt.Sprintf("%s/workouts/list/page/%d/size/%d", serverEndpoint, page, size)
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

	var listResp workouts.ListResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &listResp))
	return listResp
}

func (s *IntegrationTestSuite) TestWorkouts_Unauthorized() {
	ctx := context.Background()
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/workouts/1", serverEndpoint),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestWorkouts_CRUD() {
	ctx := context.Background()
	s.deleteAllWorkouts(ctx)
	token := doLogin(ctx, s.T())

	workout := randomWorkout("gym-rat", time.Now())
	added := s.addWorkoutRequest(ctx, token, workout)
	require.NotZero(s.T(), added.ID)
	assert.Equal(s.T(), workout.Name, added.Name)
	assert.Equal(s.T(), 1, added.CountScheduledToday)

	retrieved, status := s.getWorkoutRequest(ctx, token, added.ID)
	require.Equal(s.T(), http.StatusOK, status)
	assert.Equal(s.T(), workout.Name, retrieved.Name)
	require.Len(s.T(), retrieved.Exercises, 2)
	assert.Equal(s.T(), "bench press", retrieved.Exercises[0].Name)
	assert.Len(s.T(), retrieved.Exercises[0].Sets, 2)

	// complete the workout
	now := time.Now()
	retrieved.Status = workouts.StatusCompleted
	retrieved.StartedAt = &now
	for i := range retrieved.Exercises {
		for j := range retrieved.Exercises[i].Sets {
			retrieved.Exercises[i].Sets[j].Completed = true
			retrieved.Exercises[i].Sets[j].ActualReps = retrieved.Exercises[i].Sets[j].TargetReps
			retrieved.Exercises[i].Sets[j].ActualKilos = retrieved.Exercises[i].Sets[j].TargetKilos
		}
	}
	status = s.updateWorkoutRequest(ctx, token, *retrieved)
	require.Equal(s.T(), http.StatusOK, status)

	completed, status := s.getWorkoutRequest(ctx, token, added.ID)
	require.Equal(s.T(), http.StatusOK, status)
	assert.Equal(s.T(), workouts.StatusCompleted, completed.Status)
	require.NotNil(s.T(), completed.CompletedAt)

	// completed history is immutable
	completed.Name = "rewritten history"
	status = s.updateWorkoutRequest(ctx, token, *completed)
	assert.Equal(s.T(), http.StatusConflict, status)

	// delete
	req, err := http.NewRequestWithContext(
		ctx,
		"DELETE", fmt.Sprintf("%s/workouts/%d", serverEndpoint, added.ID),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AuthTokenHeader, token)
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	_, status = s.getWorkoutRequest(ctx, token, added.ID)
	assert.Equal(s.T(), http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestWorkouts_ListAndFilter() {
	ctx := context.Background()
	s.deleteAllWorkouts(ctx)
	token := doLogin(ctx, s.T())

	base := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.addWorkoutRequest(ctx, token, randomWorkout("gym-rat", base.AddDate(0, 0, i)))
	}
	s.addWorkoutRequest(ctx, token, randomWorkout("other-user", base))

	listResp := s.listWorkoutsRequest(ctx, token, 1, 3, "user=gym-rat")
	assert.Equal(s.T(), 5, listResp.Total)
	require.Len(s.T(), listResp.Workouts, 3)
	// newest scheduled first
	assert.Equal(s.T(), base.AddDate(0, 0, 4).Unix(), listResp.Workouts[0].ScheduledAt.Unix())

	listResp = s.listWorkoutsRequest(ctx, token, 2, 3, "user=gym-rat")
	assert.Equal(s.T(), 5, listResp.Total)
	assert.Len(s.T(), listResp.Workouts, 2)

	rangeQuery := fmt.Sprintf(
		"user=gym-rat&from=%s&to=%s",
		base.AddDate(0, 0, 1).Format(time.RFC3339),
		base.AddDate(0, 0, 3).Format(time.RFC3339),
	)
	listResp = s.listWorkoutsRequest(ctx, token, 1, 10, rangeQuery)
	assert.Equal(s.T(), 3, listResp.Total)
	assert.Len(s.T(), listResp.Workouts, 3)
}
