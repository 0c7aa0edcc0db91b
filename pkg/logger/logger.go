package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	once        sync.Once
	initialized = false
	appName     = ""
)

// Init initializes the global logger from the app configuration. Logs are written to
// out, or to stderr when out is nil, so stdout stays free for command output.
func Init(cfg *config.Configs, out io.Writer) error {
	logLevel := config.DefaultLogLevel
	if cfg != nil {
		appName = cfg.AppName
		if len(cfg.AppLogLevel) > 0 {
			logLevel = cfg.AppLogLevel
		}
	}
	if len(appName) == 0 {
		appName = "predator-probe"
	}
	if out == nil {
		out = os.Stderr
	}
	return initLogger(appName, logLevel, out)
}

func initLogger(appName, logLevel string, out io.Writer) error {
	level, err := ParseLevel(logLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	if initialized {
		log.Debug().Msgf("Logger already initialized!")
		return nil
	}
	once.Do(func() {
		log.Logger = log.With().Str("applicationName", appName).Logger()
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "02-01-2006 15:04:05.000",
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%-6s", i))
			},
			FormatMessage: func(i interface{}) string {
				return fmt.Sprintf("%s", i)
			},
			FieldsExclude: []string{
				"applicationName",
			},
			PartsOrder: []string{
				"applicationName",
				zerolog.TimestampFieldName,
				zerolog.LevelFieldName,
				zerolog.CallerFieldName,
				zerolog.MessageFieldName,
			},
		})

		log.Logger = log.With().Timestamp().Caller().Logger()

		// file:line instead of the full path
		zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
			lineNum := strconv.Itoa(line)
			parts := strings.Split(file, "/")
			return parts[len(parts)-1] + ":" + lineNum
		}

		zerolog.ErrorStackMarshaler = func(err error) interface{} {
			return fmt.Sprintf("%s\n%s", err, debug.Stack())
		}

		initialized = true
		log.Debug().Msg("Logger initialized!")
	})
	return nil
}

// ParseLevel maps the upper case level names used in APP_LOG_LEVEL to zerolog levels
func ParseLevel(logLevel string) (zerolog.Level, error) {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "INFO":
		return zerolog.InfoLevel, nil
	case "WARN":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	case "FATAL":
		return zerolog.FatalLevel, nil
	case "PANIC":
		return zerolog.PanicLevel, nil
	case "DISABLED":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("incorrect log level - %s", logLevel)
	}
}
