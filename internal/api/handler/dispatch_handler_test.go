package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huynhq/edustore-be/internal/api/dto"
	"github.com/huynhq/edustore-be/internal/delivery"
	"github.com/huynhq/edustore-be/internal/queue"
)

type fakeDispatcher struct {
	emails        []delivery.Payload
	messages      []delivery.Payload
	notifications []delivery.Payload
	err           error
}

func (f *fakeDispatcher) handle(q string, payload delivery.Payload, sink *[]delivery.Payload) (*queue.JobHandle, error) {
	if f.err != nil {
		return nil, f.err
	}
	*sink = append(*sink, payload)
	return &queue.JobHandle{ID: "job-1", Queue: q, EnqueuedAt: time.Now().UTC()}, nil
}

func (f *fakeDispatcher) DispatchEmail(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error) {
	return f.handle(queue.QueueEmail, payload, &f.emails)
}

func (f *fakeDispatcher) DispatchMessage(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error) {
	return f.handle(queue.QueueMessage, payload, &f.messages)
}

func (f *fakeDispatcher) DispatchNotification(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error) {
	return f.handle(queue.QueueNotification, payload, &f.notifications)
}

func newTestHandler(dispatcher Dispatcher) *DispatchHandler {
	return NewDispatchHandler(&Dependencies{
		Logger:     slog.Default(),
		Dispatcher: dispatcher,
	})
}

func performRequest(t *testing.T, handlerFn gin.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")

	handlerFn(c)
	return w
}

func TestDispatchHandler_Routing(t *testing.T) {
	body := dto.DispatchRequest{
		To:    "user-1",
		Title: "order_confirmed",
		Data:  map[string]any{"order_id": "ord-42"},
	}

	t.Run("email endpoint enqueues to the email queue", func(t *testing.T) {
		dispatcher := &fakeDispatcher{}
		h := newTestHandler(dispatcher)

		w := performRequest(t, h.DispatchEmail, body)
		assert.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, dispatcher.emails, 1)
		assert.Equal(t, "user-1", dispatcher.emails[0].To)
		assert.Equal(t, "order_confirmed", dispatcher.emails[0].Title)
		assert.Equal(t, "ord-42", dispatcher.emails[0].Data["order_id"])

		var resp dto.DispatchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "job-1", resp.JobID)
		assert.Equal(t, queue.QueueEmail, resp.Queue)
	})

	t.Run("message endpoint enqueues to the message queue", func(t *testing.T) {
		dispatcher := &fakeDispatcher{}
		h := newTestHandler(dispatcher)

		w := performRequest(t, h.DispatchMessage, body)
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Len(t, dispatcher.messages, 1)
		assert.Empty(t, dispatcher.emails)
	})

	t.Run("notification endpoint enqueues to the notification queue", func(t *testing.T) {
		dispatcher := &fakeDispatcher{}
		h := newTestHandler(dispatcher)

		w := performRequest(t, h.DispatchNotification, body)
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Len(t, dispatcher.notifications, 1)
	})
}

func TestDispatchHandler_Validation(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{
			name: "missing to",
			body: map[string]any{"title": "order_confirmed"},
		},
		{
			name: "missing title",
			body: map[string]any{"to": "user-1"},
		},
		{
			name: "empty body",
			body: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{}
			h := newTestHandler(dispatcher)

			w := performRequest(t, h.DispatchEmail, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, dispatcher.emails)
		})
	}
}

func TestDispatchHandler_EnqueueFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("broker unreachable")}
	h := newTestHandler(dispatcher)

	w := performRequest(t, h.DispatchEmail, dto.DispatchRequest{
		To:    "user-1",
		Title: "order_confirmed",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
