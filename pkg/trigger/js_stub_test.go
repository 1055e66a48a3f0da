//go:build !js_eval

package trigger

import (
	"errors"
	"testing"
)

func TestJSEngineUnavailableWithoutBuildTag(t *testing.T) {
	if _, err := NewEvaluator(EngineJS); !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}
