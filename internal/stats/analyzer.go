package stats

import (
	"context"
	"time"

	"github.com/periolifts/periolifts/internal/calendar"
	"github.com/periolifts/periolifts/internal/telemetry/metrics"
	"github.com/periolifts/periolifts/internal/telemetry/tracing"
	"github.com/periolifts/periolifts/internal/workouts"

	"go.opentelemetry.io/otel/attribute"
)

type workoutsRepo interface {
	ListAll(ctx context.Context, params workouts.WorkoutParams) ([]workouts.Workout, error)
}

// Analyzer computes derived workout-history stats. The record filtering
// (user, date range) is pushed down to the repo, the aggregation itself
// runs over the fetched in-memory snapshot.
type Analyzer struct {
	repo                workoutsRepo
	metrics             *metrics.Manager
	fallbackToScheduled bool
}

func NewAnalyzer(
	repo workoutsRepo,
	metricsManager *metrics.Manager,
	fallbackToScheduled bool,
) *Analyzer {
	return &Analyzer{
		repo:                repo,
		metrics:             metricsManager,
		fallbackToScheduled: fallbackToScheduled,
	}
}

type HistoryParams struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

// History fetches the matching workouts and computes stats over them.
// All statuses are included, the completion rate needs both completed
// and not-completed records.
func (a *Analyzer) History(ctx context.Context, params HistoryParams) (_ *HistoryStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.stats.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", params.UserID))

	records, err := a.repo.ListAll(ctx, workouts.WorkoutParams{
		UserID: params.UserID,
		From:   params.From,
		To:     params.To,
	})
	if err != nil {
		return nil, err
	}

	computeStart := time.Now()
	historyStats := Compute(records, Options{
		FallbackToScheduled: a.fallbackToScheduled,
	})
	a.metrics.HistStatsComputeDuration.Observe(time.Since(computeStart).Seconds())

	span.SetAttributes(attribute.Int("records", len(records)))

	return &historyStats, nil
}

// Calendar buckets the matching workouts by calendar day, for the
// calendar view. Unlike History it keeps scheduled workouts visible.
func (a *Analyzer) Calendar(
	ctx context.Context,
	params HistoryParams,
) (_ map[calendar.Day][]workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.stats.calendar")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	records, err := a.repo.ListAll(ctx, workouts.WorkoutParams{
		UserID: params.UserID,
		From:   params.From,
		To:     params.To,
	})
	if err != nil {
		return nil, err
	}

	return calendar.BucketByDay(records), nil
}
