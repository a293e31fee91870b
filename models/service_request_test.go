package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionRequestStatus(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{RequestStatusPending, RequestStatusScheduled, true},
		{RequestStatusPending, RequestStatusInProgress, true},
		{RequestStatusPending, RequestStatusCanceled, true},
		{RequestStatusPending, RequestStatusDone, false},
		{RequestStatusScheduled, RequestStatusInProgress, true},
		{RequestStatusScheduled, RequestStatusDone, true},
		{RequestStatusScheduled, RequestStatusCanceled, true},
		{RequestStatusScheduled, RequestStatusPending, false},
		{RequestStatusInProgress, RequestStatusDone, true},
		{RequestStatusInProgress, RequestStatusCanceled, true},
		{RequestStatusInProgress, RequestStatusScheduled, false},
		{RequestStatusDone, RequestStatusPending, false},
		{RequestStatusDone, RequestStatusCanceled, false},
		{RequestStatusCanceled, RequestStatusPending, false},
		{RequestStatusCanceled, RequestStatusDone, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransitionRequestStatus(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestServiceRequestIsActive(t *testing.T) {
	for _, status := range ActiveRequestStatuses {
		sr := &ServiceRequest{Status: status}
		assert.True(t, sr.IsActive(), status)
		assert.False(t, sr.IsTerminal(), status)
	}

	for _, status := range []string{RequestStatusDone, RequestStatusCanceled} {
		sr := &ServiceRequest{Status: status}
		assert.False(t, sr.IsActive(), status)
		assert.True(t, sr.IsTerminal(), status)
	}
}

func TestIsValidRequestStatus(t *testing.T) {
	assert.True(t, IsValidRequestStatus(RequestStatusPending))
	assert.True(t, IsValidRequestStatus(RequestStatusCanceled))
	assert.False(t, IsValidRequestStatus("archived"))
	assert.False(t, IsValidRequestStatus(""))
}
