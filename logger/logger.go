package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how New builds a logger.
type Options struct {
	// JSON selects production JSON output instead of console output
	JSON bool
	// Verbosity is the CLI flag count (-v, -vv, ...); see VerbosityToLevel
	Verbosity int
}

// New builds the diagnostics sink handed to every bootstrap component.
// There is no package-level logger: callers pass the result down explicitly.
func New(opts Options) (*zap.SugaredLogger, error) {
	level := zap.NewAtomicLevelAt(VerbosityToLevel(opts.Verbosity))

	if opts.JSON {
		// JSON structured output for machine consumption
		config := zap.NewProductionConfig()
		config.Level = level
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
		zapLogger, err := config.Build()
		if err != nil {
			return nil, err
		}
		return zapLogger.Sugar(), nil
	}

	// Human-readable console output; stdout is reserved for command results
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeCaller = nil
	encoderConfig.CallerKey = ""

	zapLogger := zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stderr),
			level,
		),
	)
	return zapLogger.Sugar(), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// OrNop returns log, or a no-op logger when log is nil. Constructors use it
// so a nil sink never causes a panic.
func OrNop(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return Nop()
	}
	return log
}

// Component returns a named child logger for a specific component.
//
// Example:
//
//	type Installer struct {
//	    log *zap.SugaredLogger
//	}
//
//	func NewInstaller(log *zap.SugaredLogger) *Installer {
//	    return &Installer{log: logger.Component(log, "installer")}
//	}
func Component(log *zap.SugaredLogger, name string) *zap.SugaredLogger {
	return OrNop(log).Named(name)
}

// Sync flushes any buffered log entries
func Sync(log *zap.SugaredLogger) {
	if log != nil {
		_ = log.Sync()
	}
}
