package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huynhq/edustore-be/internal/delivery"
)

func TestJobEnvelopeRoundTrip(t *testing.T) {
	job := Job{
		ID:    "7f0f7f3a-2a4e-4f3e-9a43-07c53a1f2b10",
		Queue: QueueNotification,
		Payload: delivery.Payload{
			To:    "user-42",
			Title: "life_refilled",
			Data: map[string]any{
				"lives": float64(3),
			},
		},
		EnqueuedAt:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		MaxAttempts:      1,
		RemoveOnComplete: true,
		RemoveOnFail:     true,
	}

	body, err := json.Marshal(job)
	require.NoError(t, err)

	var decoded Job
	require.NoError(t, json.Unmarshal(body, &decoded))

	// The payload shape must survive the wire untouched
	assert.Equal(t, job.Payload, decoded.Payload)
	assert.Equal(t, job.ID, decoded.ID)
	assert.Equal(t, job.Queue, decoded.Queue)
	assert.True(t, decoded.RemoveOnComplete)
	assert.True(t, decoded.RemoveOnFail)
	assert.Equal(t, 1, decoded.MaxAttempts)
	assert.Equal(t, 0, decoded.Attempts)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"Email", "Message", "Notification"}, Names())
}

func TestKnown(t *testing.T) {
	for _, name := range Names() {
		assert.True(t, known(name), name)
	}
	assert.False(t, known("email"))
	assert.False(t, known(""))
	assert.False(t, known("DeadLetter"))
}
