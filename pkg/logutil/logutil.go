package logutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup sets up the logging for the application
func Setup(out io.Writer, level string) *logrus.Logger {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}

	log := &logrus.Logger{
		Formatter: &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		},
		Out:          out,
		ReportCaller: false,
		Level:        lvl,
	}

	return log
}

// LookupEnvOrString looks up an environment variable if not found
// returns defaultVal
func LookupEnvOrString(envName, defaultVal string) string {
	if val, ok := os.LookupEnv(envName); ok {
		return val
	}

	return defaultVal
}

// Level returns the log level requested via $JANN_LOG_LEVEL, defaulting
// to warning so routine runs stay quiet.
func Level() string {
	return LookupEnvOrString("JANN_LOG_LEVEL", "warning")
}
