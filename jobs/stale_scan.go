package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/freightdesk/freightdesk/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// StaleShipmentScanJob flags non-terminal shipments that have gone quiet.
// It only reports; operators decide whether to chase the carrier or put the
// shipment on hold.
type StaleShipmentScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewStaleShipmentScanJob initialises the stale shipment handler.
func NewStaleShipmentScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *StaleShipmentScanJob {
	return &StaleShipmentScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the sweep.
func (j *StaleShipmentScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("stale scan: handler not configured")
	}
	var payload StaleShipmentScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.IdleDays <= 0 {
		payload.IdleDays = 7
	}

	tracker := j.metrics().Track(TaskTypeStaleShipmentScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("idle_days", payload.IdleDays))
	logger.Info("starting stale shipment scan")

	stale, err := j.scan(ctx, payload, j.now())
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, s := range stale {
		logger.Warn("stale shipment detected",
			slog.Int64("shipment_id", s.ID),
			slog.String("reference", s.Reference),
			slog.String("status", s.Status),
			slog.Time("last_event_at", s.LastEventAt),
		)
	}

	logger.Info("completed stale shipment scan", slog.Int("stale", len(stale)))
	return resultErr
}

type staleShipment struct {
	ID          int64
	Reference   string
	Status      string
	LastEventAt time.Time
}

func (j *StaleShipmentScanJob) scan(ctx context.Context, payload StaleShipmentScanPayload, now time.Time) ([]staleShipment, error) {
	if j.Pool == nil {
		return nil, errors.New("stale scan: pool not configured")
	}
	cutoff := now.AddDate(0, 0, -payload.IdleDays)
	rows, err := j.Pool.Query(ctx, `
		SELECT s.id, s.reference, s.status, COALESCE(MAX(e.occurred_at), s.created_at) AS last_event_at
		FROM shipments s
		LEFT JOIN tracking_events e ON e.shipment_id = s.id
		WHERE s.status NOT IN ('delivered', 'cancelled')
		GROUP BY s.id, s.reference, s.status, s.created_at
		HAVING COALESCE(MAX(e.occurred_at), s.created_at) < $1
		ORDER BY last_event_at ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []staleShipment
	for rows.Next() {
		var s staleShipment
		if err := rows.Scan(&s.ID, &s.Reference, &s.Status, &s.LastEventAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (j *StaleShipmentScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeStaleShipmentScan))
	}
	return slog.Default().With(slog.String("job", TaskTypeStaleShipmentScan))
}

func (j *StaleShipmentScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *StaleShipmentScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
