package logging

import "go.uber.org/zap"

// Logger is the logging sink used throughout the packetizer. It wraps a
// zap.Logger rather than printing with the standard log package: the
// packetizer logs protocol traces (per-worker GET_ENTRIES/PACKET exchanges)
// at a volume where structured, leveled fields matter.
type Logger struct {
	z *zap.Logger
}

// NewLogger wraps an existing zap.Logger
func NewLogger(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// NewNopLogger returns a Logger which discards everything, used as the
// default when a caller does not supply one
func NewNopLogger() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Log writes a message at the given logging package level with structured
// fields, tagging it with LogLevelToString's name for that level so the
// level constant table means something in the output, not just in the
// dispatch switch below.
func (l *Logger) Log(level int, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("level", LogLevelToString(level)))
	switch level {
	case TraceLevel, DebugLevel:
		l.z.Debug(msg, fields...)
	case InfoLevel:
		l.z.Info(msg, fields...)
	case WarnLevel:
		l.z.Warn(msg, fields...)
	case ErrorLevel:
		l.z.Error(msg, fields...)
	case FatalLevel:
		l.z.Error(msg, fields...) // never os.Exit from inside a scheduling library
	default:
		l.z.Info(msg, fields...)
	}
}

// Debug logs at DebugLevel
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }

// Info logs at InfoLevel
func (l *Logger) Info(msg string, fields ...zap.Field) { l.z.Info(msg, fields...) }

// Warn logs at WarnLevel
func (l *Logger) Warn(msg string, fields ...zap.Field) { l.z.Warn(msg, fields...) }

// Error logs at ErrorLevel
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }
