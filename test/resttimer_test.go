package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/periolifts/periolifts/internal/middleware"
	"github.com/periolifts/periolifts/internal/resttimer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) restTimerStateRequest(
	ctx context.Context,
	token, sessionKey string,
) resttimer.TimerStateResponse {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/resttimer/%s", serverEndpoint, sessionKey),
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

	var stateResp resttimer.TimerStateResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &stateResp))
	return stateResp
}

func (s *IntegrationTestSuite) TestRestTimer_StartSkip() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())
	sessionKey := "gym-rat-session"

	startReqJson, err := json.Marshal(resttimer.StartTimerRequest{Seconds: 120})
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/resttimer/%s/start", serverEndpoint, sessionKey),
		bytes.NewReader(startReqJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	resp.Body.Close()

	var startResp resttimer.TimerStateResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &startResp))
	assert.Equal(s.T(), "running", startResp.State)
	assert.NotEmpty(s.T(), startResp.TimerID)
	assert.LessOrEqual(s.T(), startResp.RemainingSeconds, 120)

	stateResp := s.restTimerStateRequest(ctx, token, sessionKey)
	assert.Equal(s.T(), "running", stateResp.State)

	// unknown sessions report an idle timer
	stateResp = s.restTimerStateRequest(ctx, token, "no-such-session")
	assert.Equal(s.T(), "idle", stateResp.State)
	assert.Zero(s.T(), stateResp.RemainingSeconds)

	req, err = http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/resttimer/%s/skip", serverEndpoint, sessionKey),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err = s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	stateResp = s.restTimerStateRequest(ctx, token, sessionKey)
	assert.Equal(s.T(), "idle", stateResp.State)
}
