package logger

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLogger() {
	logMu.Lock()
	log = nil
	logMu.Unlock()
}

func TestGetLogger_ConcurrentFirstUse(t *testing.T) {
	resetLogger()

	const callers = 16
	loggers := make([]*slog.Logger, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(slot int) {
			defer wg.Done()
			loggers[slot] = GetLogger()
		}(i)
	}
	wg.Wait()

	for _, l := range loggers {
		require.NotNil(t, l)
		assert.Same(t, loggers[0], l)
	}
}

func TestInit_ReplacesLazyLogger(t *testing.T) {
	resetLogger()

	lazy := GetLogger()
	require.NotNil(t, lazy)

	Init("production")
	assert.NotSame(t, lazy, GetLogger())
}
