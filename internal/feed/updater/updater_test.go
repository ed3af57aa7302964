package updater

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubUpdater struct {
	updated bool
	err     error
}

func (s stubUpdater) Update(context.Context) (bool, error) {
	return s.updated, s.err
}

func TestNoop(t *testing.T) {
	updated, err := Noop{}.Update(context.Background())
	assert.NoError(t, err)
	assert.False(t, updated)
}

func TestWithLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	updated, err := WithLogging(stubUpdater{updated: true}, logger).Update(context.Background())
	assert.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, 1, logs.FilterMessage("self-update applied").Len())

	boom := errors.New("boom")
	_, err = WithLogging(stubUpdater{err: boom}, logger).Update(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, logs.FilterMessage("self-update failed").Len())
}
