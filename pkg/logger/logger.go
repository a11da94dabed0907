package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Init configures the process logger (called once from main). Level comes
// from LOG_LEVEL; output is JSON so the health-center deployment can ship
// logs as-is.
func Init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

func Infof(format string, v ...any) {
	log.Infof(format, v...)
}

func Warnf(format string, v ...any) {
	log.Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	log.Errorf(format, v...)
}

func Debugf(format string, v ...any) {
	log.Debugf(format, v...)
}

func Fatalf(format string, v ...any) {
	log.Fatalf(format, v...)
}
