package realtime

import (
	"context"
	"encoding/json"
	"time"

	"microfinance-backoffice/internal/domain/change"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "changes:"

// Feed is the table change feed over Redis pub/sub, one channel per table.
type Feed struct {
	rdb *redis.Client
	log *zap.Logger
	now func() time.Time
}

func NewFeed(rdb *redis.Client, log *zap.Logger) *Feed {
	return &Feed{rdb: rdb, log: log, now: func() time.Time { return time.Now().UTC() }}
}

var (
	_ change.Publisher  = (*Feed)(nil)
	_ change.Subscriber = (*Feed)(nil)
)

func (f *Feed) Publish(ctx context.Context, c change.Change) {
	if c.At.IsZero() {
		c.At = f.now()
	}
	b, err := json.Marshal(c)
	if err != nil {
		f.log.Warn("change encode", zap.Error(err))
		return
	}
	if err := f.rdb.Publish(ctx, channelPrefix+c.Table, b).Err(); err != nil {
		f.log.Warn("change publish", zap.String("table", c.Table), zap.Error(err))
	}
}

// Subscribe streams changes of table (or every table for "*") whose event
// matches event. The channel closes when ctx is done.
func (f *Feed) Subscribe(ctx context.Context, table, event string) (<-chan change.Change, error) {
	var sub *redis.PubSub
	if table == change.Wildcard {
		sub = f.rdb.PSubscribe(ctx, channelPrefix+"*")
	} else {
		sub = f.rdb.Subscribe(ctx, channelPrefix+table)
	}
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan change.Change, 32)
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
				var c change.Change
				if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
					f.log.Warn("change decode", zap.String("channel", m.Channel), zap.Error(err))
					continue
				}
				if !c.Matches(table, event) {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
