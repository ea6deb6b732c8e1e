package schedulemock

import (
	"context"
	"sync"

	"microfinance-backoffice/internal/domain/schedule"
)

var _ schedule.Generator = (*Generator)(nil)

// Generator records every request it receives; GenerateFn decides the result.
type Generator struct {
	GenerateFn func(ctx context.Context, req schedule.Request) error

	mu    sync.Mutex
	calls []schedule.Request
}

func (m *Generator) Generate(ctx context.Context, req schedule.Request) error {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	return nil
}

func (m *Generator) Calls() []schedule.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]schedule.Request(nil), m.calls...)
}
