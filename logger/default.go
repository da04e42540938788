package logger

import "os"

var defLogger = newDefaultLogger()

func newDefaultLogger() Logger {
	level := InfoLevel
	if lv, err := ParseLevel(os.Getenv("ROBOLINK_LOG_LEVEL")); err == nil {
		level = lv
	}

	return NewSlog(level, false)
}

func Debug(msg string, keysAndValues ...any) {
	defLogger.Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	defLogger.Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	defLogger.Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	defLogger.Error(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...any) {
	defLogger.Fatal(msg, keysAndValues...)
}

func SetLevel(level Level) {
	defLogger.SetLevel(level)
}

// GetLogger returns the process-wide default logger. Its initial level is read from
// the ROBOLINK_LOG_LEVEL environment variable, defaulting to info.
func GetLogger() Logger {
	return defLogger
}

func With(keyValues ...any) Logger {
	return defLogger.With(keyValues...)
}
