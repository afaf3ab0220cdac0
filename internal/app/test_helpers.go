package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/attrbridge/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Bytes returns a copy of the buffered data.
func (b *SafeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.b.Bytes())
}

// SetupAppTest creates a new app instance for system testing. It returns
// the app with its result and log buffers.
func SetupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	validated, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test configuration: %v", err)
	}

	outBuffer := &SafeBuffer{}
	logBuffer := &SafeBuffer{}
	testApp := NewApp(outBuffer, logBuffer, validated, modules...)

	t.Cleanup(func() {
		if os.Getenv("ATTRBRIDGE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, outBuffer, logBuffer
}
