package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeStatusNotify is the task type for shipment status notifications.
	TaskTypeStatusNotify = "shipments:status_notify"
	// TaskTypeStaleShipmentScan is the task type for the scheduled stale
	// shipment sweep.
	TaskTypeStaleShipmentScan = "shipments:stale_scan"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP/Mailpit in phase 2.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// StatusNotifyPayload carries the facts of one shipment status transition.
type StatusNotifyPayload struct {
	ShipmentID int64     `json:"shipment_id"`
	Reference  string    `json:"reference"`
	ClientID   int64     `json:"client_id,omitempty"`
	EventID    int64     `json:"event_id"`
	EventCode  string    `json:"event_code"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewStatusNotifyTask constructs a status notification task.
func NewStatusNotifyTask(payload StatusNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeStatusNotify, data), nil
}

// StaleShipmentScanPayload configures the stale shipment sweep.
type StaleShipmentScanPayload struct {
	// IdleDays is how long a non-terminal shipment may go without a
	// tracking event before it is flagged.
	IdleDays int `json:"idle_days"`
}

// NewStaleShipmentScanTask constructs the scheduled sweep task.
func NewStaleShipmentScanTask(payload StaleShipmentScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeStaleShipmentScan, data), nil
}
