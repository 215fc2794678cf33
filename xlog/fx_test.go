package xlog

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func TestFxXLoggerAllCases(t *testing.T) {
	testcases := []struct {
		name     string
		event    fxevent.Event
		expected string
	}{
		{"onStartExecuting", &fxevent.OnStartExecuting{FunctionName: "f1", CallerName: "c1"}, "HOOK OnStart executing"},
		{"onStartExecuted_err", &fxevent.OnStartExecuted{FunctionName: "f2", CallerName: "c2", Err: errors.New("fx error 1")}, "HOOK OnStart failed"},
		{"onStartExecuted_succ", &fxevent.OnStartExecuted{FunctionName: "f3", CallerName: "c3", Runtime: 12}, "HOOK OnStart executed"},
		{"onStopExecuting", &fxevent.OnStopExecuting{FunctionName: "f4", CallerName: "c4"}, "HOOK OnStop executing"},
		{"onStopExecuted_err", &fxevent.OnStopExecuted{FunctionName: "f5", Err: errors.New("fx error 2")}, "HOOK OnStop failed"},
		{"onStopExecuted_succ", &fxevent.OnStopExecuted{FunctionName: "f6"}, "HOOK OnStop executed"},
		{"supplied_err", &fxevent.Supplied{TypeName: "t1", Err: errors.New("fx error 3")}, "SUPPLY failed"},
		{"supplied_module", &fxevent.Supplied{TypeName: "t2", ModuleName: "m1"}, `"module":"m1"`},
		{"provided", &fxevent.Provided{OutputTypeNames: []string{"t3"}, ConstructorName: "ctor"}, `"constructor":"ctor"`},
		{"provided_err", &fxevent.Provided{Err: errors.New("fx error 4")}, "PROVIDE failed"},
		{"replaced", &fxevent.Replaced{OutputTypeNames: []string{"t4"}}, "REPLACE"},
		{"decorated", &fxevent.Decorated{OutputTypeNames: []string{"t5"}, DecoratorName: "deco"}, `"decorator":"deco"`},
		{"invoking", &fxevent.Invoking{FunctionName: "f7"}, "INVOKING"},
		{"invoked_err", &fxevent.Invoked{FunctionName: "f8", Err: errors.New("fx error 5")}, "INVOKE failed"},
		{"stopping", &fxevent.Stopping{Signal: os.Interrupt}, "STOPPING"},
		{"stopped_err", &fxevent.Stopped{Err: errors.New("fx error 6")}, "Failed to stop cleanly"},
		{"rollingBack", &fxevent.RollingBack{StartErr: errors.New("fx error 7")}, "rolling back"},
		{"rolledBack_err", &fxevent.RolledBack{Err: errors.New("fx error 8")}, "Couldn't roll back cleanly"},
		{"started", &fxevent.Started{}, "RUNNING"},
		{"started_err", &fxevent.Started{Err: errors.New("fx error 9")}, "Failed to start"},
		{"loggerInitialized", &fxevent.LoggerInitialized{ConstructorName: "ctor"}, "LOGGER initialized"},
		{"loggerInitialized_err", &fxevent.LoggerInitialized{Err: errors.New("fx error 10")}, "Failed to initialize custom logger"},
	}

	buf := &bytes.Buffer{}
	logger := NewFxXLogger(NewXLogger(WithXLoggerWriter(buf), WithXLoggerLevel(LogLevelDebug)))
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			buf.Reset()
			logger.LogEvent(tc.event)
			out := buf.String()
			require.Contains(tt, out, tc.expected)
			require.Contains(tt, out, `"component":"Fx"`)
			require.NotContains(tt, out, "callAt")
		})
	}

	var nilLogger *FxXLogger
	require.NotPanics(t, func() {
		nilLogger.LogEvent(&fxevent.Started{})
	})
}

func TestFxXLoggerWithApp(t *testing.T) {
	buf := &bytes.Buffer{}
	xl := NewXLogger(WithXLoggerWriter(buf), WithXLoggerLevel(LogLevelDebug))

	var populated XLogger
	app := fx.New(
		fx.Provide(func() XLogger { return xl }),
		fx.WithLogger(func(l XLogger) fxevent.Logger {
			return NewFxXLogger(l)
		}),
		fx.Populate(&populated),
	)
	require.NoError(t, app.Err())
	require.Same(t, xl.(*xLogger), populated.(*xLogger))
	require.True(t, strings.Contains(buf.String(), "LOGGER initialized"))
}
