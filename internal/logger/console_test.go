package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLevel(t *testing.T) {
	tests := map[string]string{
		"":        "info",
		"DEBUG":   "debug",
		" warn ":  "warn",
		"warning": "warn",
		"error":   "error",
		"verbose": "info",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLevel(in), "NormalizeLevel(%q)", in)
	}
}

func TestConsoleLogger_Prefix(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "info")

	log.Infof("Found %d new paths", 3)

	assert.Equal(t, "[TREE-GEN] Found 3 new paths\n", buf.String())
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "warn")

	log.Debugf("debug")
	log.Infof("info")
	log.Successf("success")
	log.Warnf("careful")
	log.Errorf("broken")

	out := buf.String()
	assert.NotContains(t, out, "debug")
	assert.NotContains(t, out, "info")
	assert.NotContains(t, out, "success")
	assert.Contains(t, out, "[TREE-GEN] Warning: careful")
	assert.Contains(t, out, "[TREE-GEN] broken")
}

func TestConsoleLogger_SuccessMarker(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleLogger(&buf, "info").Successf("done")

	assert.Equal(t, "✅ [TREE-GEN] done\n", buf.String())
}

func TestConsoleLogger_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "debug")
	assert.False(t, log.colorOutput)

	log.Errorf("plain")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestConsoleLogger_NilWriter(t *testing.T) {
	log := NewConsoleLogger(nil, "debug")
	assert.NotPanics(t, func() {
		log.Infof("dropped")
	})
}

func TestConsoleLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.Infof("line %d", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, Prefix), "line %q lacks prefix", line)
	}
}
