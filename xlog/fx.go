package xlog

import (
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ fxevent.Logger = (*FxXLogger)(nil)

// FxXLogger routes the fx lifecycle events into the XLogger.
// Hook executions are logged at INFO, the dependency graph at DEBUG.
type FxXLogger struct {
	logger XLogger
}

func (l *FxXLogger) hookExecuted(name string, err error, fn, caller string, in int64) {
	fields := []zap.Field{
		zap.String("function", fn),
		zap.String("caller", caller),
		zap.Int64("in", in),
	}
	if err != nil {
		l.logger.Error(err, "HOOK "+name+" failed", fields...)
		return
	}
	l.logger.Info("HOOK "+name+" executed", fields...)
}

func (l *FxXLogger) outputTypes(action string, err error, types []string, module string, fields ...zap.Field) {
	for _, rtype := range types {
		_fields := append([]zap.Field{zap.String("rtype", rtype)}, fields...)
		if module != "" {
			_fields = append(_fields, zap.String("module", module))
		}
		l.logger.Debug(action, _fields...)
	}
	if err != nil {
		l.logger.Error(err, action+" failed")
	}
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.logger.Debug("HOOK OnStart executing",
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
		)
	case *fxevent.OnStartExecuted:
		l.hookExecuted("OnStart", e.Err, e.FunctionName, e.CallerName, int64(e.Runtime))
	case *fxevent.OnStopExecuting:
		l.logger.Debug("HOOK OnStop executing",
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
		)
	case *fxevent.OnStopExecuted:
		l.hookExecuted("OnStop", e.Err, e.FunctionName, e.CallerName, int64(e.Runtime))
	case *fxevent.Supplied:
		l.outputTypes("SUPPLY", e.Err, []string{e.TypeName}, e.ModuleName)
	case *fxevent.Provided:
		l.outputTypes("PROVIDE", e.Err, e.OutputTypeNames, e.ModuleName,
			zap.String("constructor", e.ConstructorName),
			zap.Bool("private", e.Private),
		)
	case *fxevent.Replaced:
		l.outputTypes("REPLACE", e.Err, e.OutputTypeNames, e.ModuleName)
	case *fxevent.Decorated:
		l.outputTypes("DECORATE", e.Err, e.OutputTypeNames, e.ModuleName,
			zap.String("decorator", e.DecoratorName),
		)
	case *fxevent.Invoking:
		l.logger.Debug("INVOKING", zap.String("function", e.FunctionName))
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "INVOKE failed",
				zap.String("function", e.FunctionName),
				zap.String("trace", e.Trace),
			)
		}
	case *fxevent.Stopping:
		l.logger.Info("STOPPING", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "Failed to stop cleanly")
		}
	case *fxevent.RollingBack:
		l.logger.Error(e.StartErr, "Start failed, rolling back")
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "Couldn't roll back cleanly")
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "Failed to start")
		} else {
			l.logger.Info("RUNNING")
		}
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "Failed to initialize custom logger")
		} else {
			l.logger.Debug("LOGGER initialized", zap.String("constructor", e.ConstructorName))
		}
	}
}

// NewFxXLogger names the entries "Fx" and drops the caller and function
// keys, the fx events carry their own.
func NewFxXLogger(logger XLogger) *FxXLogger {
	l := &xLogger{}
	if xl, ok := logger.(*xLogger); ok {
		l.dynamicLevelEnabler = xl.dynamicLevelEnabler
		l.encoder = xl.encoder
	}
	l.logger.Store(logger.
		zap().
		Named("Fx").
		WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			if core == nil {
				panic("[XLogger] core is nil")
			}
			cc, ok := core.(xLogCore)
			if !ok {
				panic("[XLogger] core is not xLogCore")
			}
			wrapped, err := WrapCore(cc, componentCoreEncoderCfg)
			if err != nil {
				panic(err)
			}
			return wrapped
		})),
	)
	return &FxXLogger{logger: l}
}
