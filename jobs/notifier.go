package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/freightdesk/freightdesk/internal/tracking"
)

// StatusNotifier adapts the queue client to the tracking service's notifier
// hook. Enqueueing keeps the event write path fast; delivery happens on the
// worker.
type StatusNotifier struct {
	client *Client
}

// NewStatusNotifier constructs a StatusNotifier.
func NewStatusNotifier(client *Client) *StatusNotifier {
	return &StatusNotifier{client: client}
}

// NotifyStatusChange enqueues a notification task for the transition.
func (n *StatusNotifier) NotifyStatusChange(ctx context.Context, change tracking.StatusChange) error {
	if n == nil || n.client == nil {
		return errors.New("jobs: status notifier not configured")
	}
	_, err := n.client.EnqueueStatusNotify(ctx, StatusNotifyPayload{
		ShipmentID: change.ShipmentID,
		Reference:  change.Reference,
		EventID:    change.EventID,
		EventCode:  string(change.Code),
		FromStatus: string(change.From),
		ToStatus:   string(change.To),
		OccurredAt: time.Now().UTC(),
	})
	return err
}

var _ tracking.Notifier = (*StatusNotifier)(nil)
