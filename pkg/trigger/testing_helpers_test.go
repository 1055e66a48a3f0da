package trigger

import (
	"testing"
	"time"

	"github.com/goliatone/go-analytics/pkg/props"
)

func purchaseInput(t *testing.T) Input {
	t.Helper()
	p, err := props.Of("plan", "pro", "amount", 42, "tags", []any{"vip", "beta"})
	if err != nil {
		t.Fatalf("props: %v", err)
	}
	return Input{
		Event:      "purchase",
		Properties: p,
		Time:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}
