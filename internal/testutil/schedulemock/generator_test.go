package schedulemock

import (
	"context"
	"errors"
	"testing"

	"microfinance-backoffice/internal/domain/schedule"
)

func TestGenerator_RecordsCalls(t *testing.T) {
	boom := errors.New("boom")
	m := &Generator{GenerateFn: func(context.Context, schedule.Request) error { return boom }}
	if err := m.Generate(context.Background(), schedule.Request{LoanApplicationID: "a"}); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	calls := m.Calls()
	if len(calls) != 1 || calls[0].LoanApplicationID != "a" {
		t.Fatalf("calls not recorded: %+v", calls)
	}

	calls[0].LoanApplicationID = "mutated"
	if m.Calls()[0].LoanApplicationID != "a" {
		t.Fatalf("Calls must return a copy")
	}
}
