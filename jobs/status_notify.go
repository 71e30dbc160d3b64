package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/freightdesk/freightdesk/internal/jobs"
)

// StatusNotifyJob turns a shipment status transition into a notification
// email for the owning client. Clients without a contact email are skipped.
type StatusNotifyJob struct {
	Pool    *pgxpool.Pool
	Mailer  *Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewStatusNotifyJob initialises the status notification handler.
func NewStatusNotifyJob(pool *pgxpool.Pool, mailer *Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *StatusNotifyJob {
	return &StatusNotifyJob{Pool: pool, Mailer: mailer, Logger: logger, Metrics: metrics}
}

// Handle executes the notification logic.
func (j *StatusNotifyJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("status notify: handler not configured")
	}
	var payload StatusNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeStatusNotify)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("reference", payload.Reference),
		slog.String("to_status", payload.ToStatus),
	)

	var clientID int64
	var email *string
	row := j.Pool.QueryRow(ctx, `
		SELECT c.id, c.email
		FROM shipments s
		JOIN clients c ON c.id = s.client_id
		WHERE s.id = $1`, payload.ShipmentID)
	if err := row.Scan(&clientID, &email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("shipment vanished before notification")
			return nil
		}
		resultErr = err
		return resultErr
	}

	if email == nil || *email == "" {
		logger.Info("client has no contact email, skipping notification")
		return nil
	}

	subject := fmt.Sprintf("Shipment %s is now %s", payload.Reference, payload.ToStatus)
	body := fmt.Sprintf(
		"Your shipment %s changed from %s to %s after event %s.",
		payload.Reference, payload.FromStatus, payload.ToStatus, payload.EventCode,
	)
	if j.Mailer != nil {
		if _, err := j.Mailer.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      *email,
			Subject: subject,
			Body:    body,
		}); err != nil {
			resultErr = err
			logger.Error("enqueue notification email", slog.Any("error", err))
			return resultErr
		}
	}

	j.metrics().AddNotifications(payload.ToStatus, clientID, 1)
	logger.Info("status notification dispatched", slog.Int64("client_id", clientID))
	return nil
}

func (j *StatusNotifyJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeStatusNotify))
	}
	return slog.Default().With(slog.String("job", TaskTypeStatusNotify))
}

func (j *StatusNotifyJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
