package mainboilerplate

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// LogConfig configures handling of application log events.
type LogConfig struct {
	Level  string `long:"level" env:"LEVEL" default:"warn" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal" description:"Logging level"`
	Format string `long:"format" env:"FORMAT" default:"text" choice:"json" choice:"text" choice:"color" description:"Logging output format"`
	Caller bool   `long:"caller" env:"CALLER" description:"Include the calling function and file of each log event"`
}

// InitLog configures the standard logger, which writes to stderr so that
// command output on stdout remains parseable.
func InitLog(cfg LogConfig) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(formatterOf(cfg.Format))
	log.SetReportCaller(cfg.Caller)

	if lvl, err := log.ParseLevel(cfg.Level); err != nil {
		log.WithField("err", err).Fatal("unrecognized log level")
	} else {
		log.SetLevel(lvl)
		log.WithField("level", lvl).Debug("using log level")
	}
}

func formatterOf(format string) log.Formatter {
	switch format {
	case "json":
		return &log.JSONFormatter{}
	case "color":
		return &log.TextFormatter{ForceColors: true, FullTimestamp: true}
	default:
		return &log.TextFormatter{FullTimestamp: true}
	}
}
