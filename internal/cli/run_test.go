package cli

import (
	"encoding/hex"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestBuildEngineReturnsWiredComponents(t *testing.T) {
	cfg := Config{
		Seeds:       []string{"https://example.test/a", "https://example.test/b"},
		Concurrency: 3,
		RetryCount:  2,
		RetryDelay:  "10ms",
	}
	e, m, router := buildEngine(cfg, testLogger())
	if e == nil || m == nil || router == nil {
		t.Fatal("buildEngine returned a nil component")
	}
	if router.HasFallback() != true {
		t.Error("expected the example router to set a fallback endpoint")
	}
}

func TestCorrelationIDIsEightHexChars(t *testing.T) {
	id := correlationID()
	if len(id) != 8 {
		t.Errorf("got id %q with length %d, want 8", id, len(id))
	}
	if _, err := hex.DecodeString(id); err != nil {
		t.Errorf("got id %q, want only hex characters: %v", id, err)
	}
}
