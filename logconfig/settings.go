// Package logconfig configures the process-wide logrus logger for
// fullnoded, the way the daemon's operator selects verbosity for a
// terminal session versus a production deployment.
package logconfig

import (
	myLogger "github.com/sirupsen/logrus"
)

// Level names accepted by Configure, matching common daemon --loglevel
// flag values.
const (
	LevelDebug      = "debug"
	LevelInfo       = "info"
	LevelProduction = "production"
)

// Configure sets the standard logger's level and formatter for name, one
// of the Level constants above. An unrecognized name falls back to info,
// the same default a misconfigured --loglevel flag should degrade to
// rather than aborting startup over.
func Configure(name string) {
	switch name {
	case LevelDebug:
		myLogger.SetReportCaller(true)
		myLogger.SetLevel(myLogger.DebugLevel)
		myLogger.SetFormatter(&myLogger.TextFormatter{
			ForceColors:            true,
			DisableTimestamp:       true,
			DisableLevelTruncation: true,
			PadLevelText:           true,
		})
	case LevelProduction:
		myLogger.SetReportCaller(false)
		myLogger.SetLevel(myLogger.InfoLevel)
		myLogger.SetFormatter(&myLogger.JSONFormatter{})
	default:
		myLogger.SetReportCaller(false)
		myLogger.SetLevel(myLogger.InfoLevel)
		myLogger.SetFormatter(&myLogger.TextFormatter{
			ForceColors:            true,
			DisableLevelTruncation: true,
			PadLevelText:           true,
		})
	}
}
