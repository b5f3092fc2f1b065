package runtime

import (
	"context"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// ExecuteStream performs the same loop as Execute but emits one event per
// node boundary (decision, node_start, node_end) in strict execution order,
// followed by a final result event, then closes the channel.
//
// The channel is unbuffered: a consumer that stops reading blocks the loop
// before the next node runs, so no work happens that nobody observes.
// Consumers abandoning the stream must cancel ctx to release it.
func (r *Runtime) ExecuteStream(ctx context.Context, req domain.Request) <-chan domain.Event {
	ch := make(chan domain.Event)

	go func() {
		defer close(ch)

		emit := func(ev domain.Event) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		run := func(ctx context.Context) error {
			result, _ := r.execute(ctx, req, emit)
			emit(domain.Event{
				Type:      domain.EventResult,
				Timestamp: time.Now(),
				SessionID: req.SessionID,
				Result:    result,
			})
			return nil
		}

		if r.sessions != nil && req.SessionID != "" {
			if err := r.sessions.WithLock(ctx, req.SessionID, run); err != nil {
				emit(domain.Event{
					Type:      domain.EventResult,
					Timestamp: time.Now(),
					SessionID: req.SessionID,
					Result:    domain.ErrorResult("session_lock", err.Error()),
				})
			}
			return
		}
		_ = run(ctx)
	}()

	return ch
}
