package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSetDevelopmentTogglesDebugLevel(t *testing.T) {
	t.Cleanup(func() { SetDevelopment(false) })

	SetDevelopment(true)
	assert.True(t, With().Core().Enabled(zap.DebugLevel))

	SetDevelopment(false)
	assert.False(t, With().Core().Enabled(zap.DebugLevel))
	assert.True(t, WithCtx(context.Background()).Core().Enabled(zap.InfoLevel))
}
