package xlog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConsoleCore(t *testing.T) {
	buf := &bytes.Buffer{}
	lvlEnabler := zap.NewAtomicLevelAt(LogLevelDebug.zapLevel())
	cc := newConsoleCore(
		lvlEnabler,
		JSON,
		zapcore.AddSync(buf),
		zapcore.CapitalLevelEncoder,
		zapcore.ISO8601TimeEncoder,
	)
	require.NotNil(t, cc.outEncoder())
	require.NotNil(t, cc.writeSyncer())
	require.NotNil(t, cc.levelEncoder())
	require.NotNil(t, cc.timeEncoder())
	require.NotNil(t, cc.(*commonCore).core)

	require.True(t, cc.Enabled(zapcore.DebugLevel))
	require.True(t, cc.Enabled(zapcore.ErrorLevel))

	lvlEnabler.SetLevel(zapcore.ErrorLevel)
	require.False(t, cc.Enabled(zapcore.DebugLevel))
	require.False(t, cc.Enabled(zapcore.InfoLevel))
	require.False(t, cc.Enabled(zapcore.WarnLevel))
	require.True(t, cc.Enabled(zapcore.ErrorLevel))

	lvlEnabler.SetLevel(zapcore.DebugLevel)

	core := cc.With([]zap.Field{zap.String("key", "value")})
	_, ok := core.(xLogCore)
	require.True(t, ok)

	ent := cc.Check(zapcore.Entry{Level: zapcore.DebugLevel}, nil)
	require.NotNil(t, ent)
	require.NoError(t, cc.Write(ent.Entry, []zap.Field{zap.String("key", "value")}))
	require.NoError(t, cc.Sync())
	require.Contains(t, buf.String(), `"key":"value"`)

	buf.Reset()
	wrapped, err := WrapCore(cc, componentCoreEncoderCfg)
	require.NoError(t, err)
	require.NoError(t, wrapped.Write(
		zapcore.Entry{Level: zapcore.DebugLevel, LoggerName: "commonCore"},
		[]zap.Field{zap.String("key", "value")},
	))
	require.Contains(t, buf.String(), `"component":"commonCore"`)
	require.NotContains(t, buf.String(), "callAt")

	// Wrapped cores follow the level of the origin.
	lvlEnabler.SetLevel(zapcore.WarnLevel)
	require.False(t, wrapped.Enabled(zapcore.InfoLevel))

	_, err = WrapCore(cc, nil)
	require.Error(t, err)
}
