package authprovider

import (
	"context"
	"encoding/json"

	"microfinance-backoffice/internal/domain/identity"

	"go.uber.org/zap"
)

const (
	eventsChannel = "auth:events"
	eventsSeqKey  = "auth:events:seq"
)

// publish stamps a sequence number and fans the event out. Failures are
// logged; the auth operation itself has already succeeded.
func (p *Provider) publish(ctx context.Context, ev identity.Event) {
	seq, err := p.rdb.Incr(ctx, eventsSeqKey).Result()
	if err != nil {
		p.log.Warn("auth event sequence", zap.Error(err))
		return
	}
	ev.Seq = seq
	ev.At = p.now()
	b, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("auth event encode", zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, eventsChannel, b).Err(); err != nil {
		p.log.Warn("auth event publish", zap.String("event", string(ev.Name)), zap.Error(err))
	}
}

func (p *Provider) Subscribe(ctx context.Context) (<-chan identity.Event, error) {
	sub := p.rdb.Subscribe(ctx, eventsChannel)
	// wait for the subscription to be confirmed so no event is missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan identity.Event, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var ev identity.Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					p.log.Warn("auth event decode", zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
