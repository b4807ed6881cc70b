package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew(t *testing.T) {
	for _, stage := range []string{"dev", StageProd} {
		log, err := New(Config{Level: "warn", Stage: stage})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel), stage)
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel), stage)
	}
}
