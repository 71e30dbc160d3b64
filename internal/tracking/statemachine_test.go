package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freightdesk/freightdesk/internal/shipments"
	_ "github.com/freightdesk/freightdesk/testing"
)

func TestProjectStatusEffects(t *testing.T) {
	cases := []struct {
		current shipments.Status
		code    EventCode
		want    shipments.Status
		changed bool
	}{
		{shipments.StatusQuoted, EventOrderConfirmed, shipments.StatusConfirmed, true},
		{shipments.StatusConfirmed, EventPickedUp, shipments.StatusInTransit, true},
		{shipments.StatusConfirmed, EventDepartedOriginPort, shipments.StatusInTransit, true},
		{shipments.StatusInTransit, EventArrivedDestinationPort, shipments.StatusInTransit, false},
		{shipments.StatusInTransit, EventCustomsClearanceStarted, shipments.StatusCustoms, true},
		{shipments.StatusCustoms, EventCustomsHold, shipments.StatusCustoms, false},
		{shipments.StatusCustoms, EventOutForDelivery, shipments.StatusInTransit, true},
		{shipments.StatusInTransit, EventDelivered, shipments.StatusDelivered, true},
		{shipments.StatusInTransit, EventDeliveryFailed, shipments.StatusOnHold, true},
		{shipments.StatusOnHold, EventException, shipments.StatusOnHold, false},
		{shipments.StatusOnHold, EventInTransit, shipments.StatusInTransit, true},
	}
	for _, tc := range cases {
		got, changed := Project(tc.current, tc.code)
		assert.Equal(t, tc.want, got, "%s + %s", tc.current, tc.code)
		assert.Equal(t, tc.changed, changed, "%s + %s", tc.current, tc.code)
	}
}

func TestProjectInformationalCodes(t *testing.T) {
	for _, code := range []EventCode{EventDelayed, EventLocationUpdate} {
		got, changed := Project(shipments.StatusInTransit, code)
		assert.Equal(t, shipments.StatusInTransit, got)
		assert.False(t, changed)
	}
}

func TestProjectTerminalStatusNeverChanges(t *testing.T) {
	for _, terminal := range []shipments.Status{shipments.StatusDelivered, shipments.StatusCancelled} {
		for _, code := range []EventCode{EventOrderConfirmed, EventPickedUp, EventDelivered, EventException} {
			got, changed := Project(terminal, code)
			assert.Equal(t, terminal, got)
			assert.False(t, changed)
		}
	}
}

func TestProjectDeterministic(t *testing.T) {
	a1, c1 := Project(shipments.StatusConfirmed, EventPickedUp)
	a2, c2 := Project(shipments.StatusConfirmed, EventPickedUp)
	assert.Equal(t, a1, a2)
	assert.Equal(t, c1, c2)
}
