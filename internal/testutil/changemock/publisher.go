package changemock

import (
	"context"
	"sync"

	"microfinance-backoffice/internal/domain/change"
)

var _ change.Publisher = (*Publisher)(nil)

// Publisher keeps published changes in memory for assertions.
type Publisher struct {
	mu      sync.Mutex
	changes []change.Change
}

func (p *Publisher) Publish(_ context.Context, c change.Change) {
	p.mu.Lock()
	p.changes = append(p.changes, c)
	p.mu.Unlock()
}

func (p *Publisher) Changes() []change.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]change.Change(nil), p.changes...)
}

// Tables lists the table of each published change in order.
func (p *Publisher) Tables() []string {
	var out []string
	for _, c := range p.Changes() {
		out = append(out, c.Table)
	}
	return out
}
