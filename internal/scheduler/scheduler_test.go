package scheduler

import (
	"context"
	"sync"

	"github.com/huynhq/edustore-be/internal/delivery"
	"github.com/huynhq/edustore-be/internal/queue"
)

// fakeNotifier records dispatched notification payloads
type fakeNotifier struct {
	mu       sync.Mutex
	payloads []delivery.Payload
	err      error
}

func (f *fakeNotifier) DispatchNotification(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	f.payloads = append(f.payloads, payload)
	return &queue.JobHandle{ID: "job-1", Queue: queue.QueueNotification}, nil
}

func (f *fakeNotifier) dispatched() []delivery.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delivery.Payload(nil), f.payloads...)
}
