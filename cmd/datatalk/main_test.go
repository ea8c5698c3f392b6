package main

import (
	"bytes"
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalContextCancelledByInterrupt(t *testing.T) {
	ctx, stop := signalContext()
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt did not cancel the command context")
	}
}

func TestRunReportsErrors(t *testing.T) {
	var stderr bytes.Buffer
	t.Setenv("DATATALK_CONFIG", "/dev/null/config.yaml")
	args := os.Args
	t.Cleanup(func() { os.Args = args })
	os.Args = []string{"datatalk", "config", "validate"}

	assert.Equal(t, 1, run(context.Background(), &stderr))
	assert.Contains(t, stderr.String(), "error:")
}
