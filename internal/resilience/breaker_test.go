package resilience

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 2, OpenTimeout: time.Hour}, discardLogger())

	calls := 0
	fail := func() error {
		calls++
		return errBoom
	}

	assert.ErrorIs(t, b.Execute(fail), errBoom)
	assert.ErrorIs(t, b.Execute(fail), errBoom)
	assert.Equal(t, "open", b.State())

	err := b.Execute(fail)
	require.Error(t, err)
	assert.True(t, IsOpen(err))
	assert.Equal(t, 2, calls, "open circuit must not call the operation")
}

func TestBreaker_IsSuccessfulKeepsCircuitClosed(t *testing.T) {
	t.Parallel()

	errExpected := errors.New("rejected")
	b := NewBreaker(BreakerConfig{
		Name:         "test",
		MaxFailures:  1,
		OpenTimeout:  time.Hour,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errExpected) },
	}, discardLogger())

	for range 3 {
		assert.ErrorIs(t, b.Execute(func() error { return errExpected }), errExpected)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_HalfOpenProbeCloses(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 1, OpenTimeout: 20 * time.Millisecond}, discardLogger())

	assert.ErrorIs(t, b.Execute(func() error { return errBoom }), errBoom)
	assert.True(t, IsOpen(b.Execute(func() error { return nil })))

	require.Eventually(t, func() bool { return b.State() == "half-open" }, time.Second, 5*time.Millisecond)
	assert.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, "closed", b.State())
}

func TestIsOpen(t *testing.T) {
	t.Parallel()

	assert.False(t, IsOpen(nil))
	assert.False(t, IsOpen(errBoom))
}
