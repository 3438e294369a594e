package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("Info")
	require.NoError(t, err)
	require.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	require.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))

	_, err = New("loud")
	require.Error(t, err)
}
