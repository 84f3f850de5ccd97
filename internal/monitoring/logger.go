package monitoring

import "log"

// Logf is the package-level diagnostic logger used for cross-cutting events
// that do not belong to any one vision stage (startup, shutdown, recorder
// failures). It defaults to log.Printf and may be replaced via SetLogger;
// tests typically mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Mute silences the package logger and returns a function that restores the
// previous logger. Intended for tests: defer monitoring.Mute()().
func Mute() func() {
	prev := Logf
	Logf = func(string, ...interface{}) {}
	return func() { Logf = prev }
}
