package resttimer

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/periolifts/periolifts/internal/telemetry/tracing"
	"github.com/periolifts/periolifts/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type StartTimerRequest struct {
	Seconds int `json:"seconds"`
}

type TimerStateResponse struct {
	State            string `json:"state"`
	RemainingSeconds int    `json:"remainingSeconds"`
	TimerID          string `json:"timerId,omitempty"`
}

type Handler struct {
	manager        *Manager
	defaultSeconds int
}

func NewHandler(manager *Manager, defaultSeconds int) *Handler {
	return &Handler{
		manager:        manager,
		defaultSeconds: defaultSeconds,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/resttimer/{session}/start", handler.HandleStart).Methods("POST", "OPTIONS").Name("start-rest-timer")
	router.HandleFunc("/resttimer/{session}/skip", handler.HandleSkip).Methods("POST", "OPTIONS").Name("skip-rest-timer")
	router.HandleFunc("/resttimer/{session}/cancel", handler.HandleCancel).Methods("POST", "OPTIONS").Name("cancel-rest-timer")
	router.HandleFunc("/resttimer/{session}", handler.HandleState).Methods("GET", "OPTIONS").Name("rest-timer-state")
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.resttimer.start")
	defer span.End()

	sessionKey := mux.Vars(r)["session"]
	if sessionKey == "" {
		http.Error(w, "session key missing", http.StatusBadRequest)
		return
	}

	var startReq StartTimerRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&startReq); err != nil {
			log.Tracef("start rest timer, unmarshal json params: %s", err)
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	if startReq.Seconds == 0 {
		startReq.Seconds = handler.defaultSeconds
	}

	duration := time.Duration(startReq.Seconds) * time.Second
	timerID, err := handler.manager.Start(sessionKey, duration, func(key string) {
		log.Debugf("rest over for session [%s]", key)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidDuration) {
			http.Error(w, "invalid rest duration", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to start rest timer for session [%s]: %s", sessionKey, err)
		http.Error(w, "failed to start rest timer", http.StatusInternalServerError)
		return
	}

	handler.writeState(w, sessionKey, timerID.String())
}

func (handler *Handler) HandleSkip(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.resttimer.skip")
	defer span.End()

	sessionKey := mux.Vars(r)["session"]
	handler.manager.Skip(sessionKey)
	handler.writeState(w, sessionKey, "")
}

func (handler *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.resttimer.cancel")
	defer span.End()

	sessionKey := mux.Vars(r)["session"]
	handler.manager.Cancel(sessionKey)
	handler.writeState(w, sessionKey, "")
}

func (handler *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.resttimer.state")
	defer span.End()

	sessionKey := mux.Vars(r)["session"]
	handler.writeState(w, sessionKey, "")
}

func (handler *Handler) writeState(w http.ResponseWriter, sessionKey, timerID string) {
	state, remaining := handler.manager.State(sessionKey)
	stateJson, err := json.Marshal(TimerStateResponse{
		State:            state.String(),
		RemainingSeconds: int(remaining / time.Second),
		TimerID:          timerID,
	})
	if err != nil {
		log.Errorf("failed to marshal rest timer state: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, stateJson, http.StatusOK)
}
