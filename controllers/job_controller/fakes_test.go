package job_controller

import (
	"context"
	"sync"

	"github.com/joy095/servicehub/models/notification_models"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*notification_models.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n *notification_models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func (r *recordingNotifier) types() []notification_models.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification_models.Type
	for _, n := range r.sent {
		out = append(out, n.Type)
	}
	return out
}

type recordingEvents struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEvents) Publish(_ context.Context, eventType, _ string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *recordingEvents) Close() error { return nil }
