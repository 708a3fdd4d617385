package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/periolifts/periolifts/internal/apperrors"
	"github.com/periolifts/periolifts/internal/calendar"
	"github.com/periolifts/periolifts/internal/telemetry/tracing"
	"github.com/periolifts/periolifts/internal/workouts"
	"github.com/periolifts/periolifts/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type historyAnalyzer interface {
	History(ctx context.Context, params HistoryParams) (*HistoryStats, error)
	Calendar(ctx context.Context, params HistoryParams) (map[calendar.Day][]workouts.Workout, error)
}

type CalendarResponse struct {
	Days map[string][]workouts.Workout `json:"days"`
}

type Handler struct {
	analyzer historyAnalyzer
}

func NewHandler(analyzer historyAnalyzer) *Handler {
	return &Handler{
		analyzer: analyzer,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/stats/history", handler.HandleHistory).Methods("GET", "OPTIONS").Name("stats-history")
	router.HandleFunc("/stats/calendar", handler.HandleCalendar).Methods("GET", "OPTIONS").Name("stats-calendar")
}

// historyParams reads user / period / from / to query params. An explicit
// from/to pair wins over period; period resolves to a range ending now.
func historyParams(r *http.Request) (HistoryParams, bool, string) {
	params := HistoryParams{
		UserID: r.URL.Query().Get("user"),
	}

	fromParam := r.URL.Query().Get("from")
	if fromParam != "" {
		from, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			return params, false, "invalid <from> param"
		}
		params.From = &from
	}
	toParam := r.URL.Query().Get("to")
	if toParam != "" {
		to, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			return params, false, "invalid <to> param"
		}
		params.To = &to
	}

	periodParam := r.URL.Query().Get("period")
	if periodParam != "" && params.From == nil && params.To == nil {
		dateRange, err := calendar.RangeFor(calendar.Period(periodParam), time.Now())
		if err != nil {
			return params, false, "invalid <period> param"
		}
		params.From = &dateRange.Start
		params.To = &dateRange.End
	}

	return params, true, ""
}

func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.history")
	defer span.End()

	params, ok, errMessage := historyParams(r)
	if !ok {
		http.Error(w, errMessage, http.StatusBadRequest)
		return
	}

	historyStats, err := handler.analyzer.History(ctx, params)
	if err != nil {
		log.Errorf("failed to compute history stats for user [%s]: %s", params.UserID, err)
		http.Error(w, "failed to compute history stats", apperrors.HTTPStatus(err))
		return
	}

	statsJson, err := json.Marshal(historyStats)
	if err != nil {
		log.Errorf("failed to marshal history stats: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, statsJson, http.StatusOK)
}

func (handler *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.calendar")
	defer span.End()

	params, ok, errMessage := historyParams(r)
	if !ok {
		http.Error(w, errMessage, http.StatusBadRequest)
		return
	}

	buckets, err := handler.analyzer.Calendar(ctx, params)
	if err != nil {
		log.Errorf("failed to bucket workouts for user [%s]: %s", params.UserID, err)
		http.Error(w, "failed to get calendar data", apperrors.HTTPStatus(err))
		return
	}

	response := CalendarResponse{
		Days: make(map[string][]workouts.Workout, len(buckets)),
	}
	for day, dayWorkouts := range buckets {
		response.Days[day.String()] = dayWorkouts
	}

	calendarJson, err := json.Marshal(response)
	if err != nil {
		log.Errorf("failed to marshal calendar response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, calendarJson, http.StatusOK)
}
