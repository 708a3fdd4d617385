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
	"github.com/periolifts/periolifts/internal/programs"
	"github.com/periolifts/periolifts/internal/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) deleteAllPrograms(ctx context.Context) {
	_, err := s.dbPool.Exec(ctx, "DELETE FROM program")
	require.NoError(s.T(), err)
}

func testProgram(userID string) programs.Program {
	return programs.Program{
		UserID: userID,
		Name:   "strength block",
		Weeks:  2,
		Days: []programs.TemplateDay{
			{
				Weekday: time.Monday,
				Name:    "push",
				Exercises: []programs.ExerciseTemplate{
					{Name: "bench press", Sets: 3, TargetReps: 5, TargetKilos: 80, RestSeconds: 180},
				},
			},
			{
				Weekday: time.Thursday,
				Name:    "pull",
				Exercises: []programs.ExerciseTemplate{
					{Name: "deadlift", Sets: 3, TargetReps: 5, TargetKilos: 120, RestSeconds: 240},
				},
			},
		},
	}
}

func (s *IntegrationTestSuite) addProgramRequest(
	ctx context.Context,
	token string,
	program programs.Program,
) programs.Program {
	programJson, err := json.Marshal(program)
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/programs", serverEndpoint),
		bytes.NewReader(programJson),
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

	var addedProgram programs.Program
	require.NoError(s.T(), json.Unmarshal(respBytes, &addedProgram))
	return addedProgram
}

func (s *IntegrationTestSuite) TestPrograms_CRUD() {
	ctx := context.Background()
	s.deleteAllPrograms(ctx)
	token := doLogin(ctx, s.T())

	added := s.addProgramRequest(ctx, token, testProgram("gym-rat"))
	require.NotZero(s.T(), added.ID)
	assert.Equal(s.T(), "strength block", added.Name)
	require.Len(s.T(), added.Days, 2)

	// list
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/programs?user=gym-rat", serverEndpoint),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	resp.Body.Close()

	var listResp programs.ListProgramsResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &listResp))
	require.Len(s.T(), listResp.Programs, 1)
	assert.Equal(s.T(), added.ID, listResp.Programs[0].ID)

	// delete
	req, err = http.NewRequestWithContext(
		ctx,
		"DELETE", fmt.Sprintf("%s/programs/%d", serverEndpoint, added.ID),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err = s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, err = http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/programs/%d", serverEndpoint, added.ID),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err = s.httpClient.Do(req)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *IntegrationTestSuite) TestPrograms_Instantiate() {
	ctx := context.Background()
	s.deleteAllPrograms(ctx)
	s.deleteAllWorkouts(ctx)
	token := doLogin(ctx, s.T())

	added := s.addProgramRequest(ctx, token, testProgram("gym-rat"))

	// wednesday, so first push day falls on the following monday
	startDate := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	instReqJson, err := json.Marshal(programs.InstantiateRequest{StartDate: startDate})
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/programs/%d/instantiate", serverEndpoint, added.ID),
		bytes.NewReader(instReqJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	resp.Body.Close()

	var instResp programs.InstantiateResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &instResp))
	assert.Equal(s.T(), added.ID, instResp.ProgramID)
	// 2 weeks x 2 training days
	require.Len(s.T(), instResp.Workouts, 4)
	for _, workout := range instResp.Workouts {
		assert.Equal(s.T(), "gym-rat", workout.UserID)
		assert.Equal(s.T(), workouts.StatusScheduled, workout.Status)
		assert.NotZero(s.T(), workout.ID)
	}

	// scheduled workouts are queryable through the regular list endpoint
	listResp := s.listWorkoutsRequest(ctx, token, 1, 10, "user=gym-rat&status=scheduled")
	assert.Equal(s.T(), 4, listResp.Total)
}
