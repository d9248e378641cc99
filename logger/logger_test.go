package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{"JSON output mode", true, 0},
		{"Console output mode", false, 1},
		{"Console debug mode", false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Initialize(tt.jsonOutput, tt.verbosity)
			require.NoError(t, err)
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			assert.Equal(t, tt.verbosity >= VerbosityDebug, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))
			Cleanup()
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(VerbosityUser))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
	assert.True(t, ShouldLogTrace(VerbosityTrace))
	assert.False(t, ShouldLogTrace(VerbosityDebug))
}

func TestFieldsFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FieldsFromContext(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithComponent(ctx, "search.editor")

	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{
		FieldRequestID, "req-1",
		FieldSession, "sess-1",
		FieldComponent, "search.editor",
	}, fields)
}

func TestLoggerFromContext(t *testing.T) {
	require.NoError(t, Initialize(false, VerbosityUser))
	defer Cleanup()

	assert.Same(t, Logger, LoggerFromContext(context.Background()))
	assert.NotSame(t, Logger, LoggerFromContext(WithSessionID(context.Background(), "abc")))
	assert.NotNil(t, ComponentLogger("search.suggest"))
}
