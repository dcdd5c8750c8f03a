package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

type LogLevel string

const (
	LogLevelDebug    LogLevel = "debug"
	LogLevelInfo     LogLevel = "info"
	LogLevelWarn     LogLevel = "warn"
	LogLevelError    LogLevel = "error"
	LogLevelDisabled LogLevel = "disabled"
)

type LogMode string

const (
	LogModeDebug  LogMode = "debug"
	LogModePretty LogMode = "pretty"
	LogModeInfo   LogMode = "info"
	LogModeProd   LogMode = "prod"
	LogModeTest   LogMode = "test"
)

type Config struct {
	Level         LogLevel
	Pretty        bool
	TimeFormat    string
	CallerEnabled bool
	NoColor       bool
}

func DefaultConfig() Config {
	return Config{
		Level:         LogLevelInfo,
		Pretty:        false,
		TimeFormat:    time.RFC3339,
		CallerEnabled: true,
		NoColor:       false,
	}
}

func ConfigForMode(mode LogMode) Config {
	switch mode {
	case LogModeDebug:
		return Config{
			Level:         LogLevelDebug,
			Pretty:        true,
			TimeFormat:    time.RFC3339,
			CallerEnabled: true,
		}
	case LogModePretty:
		return Config{
			Level:         LogLevelInfo,
			Pretty:        true,
			TimeFormat:    time.RFC3339,
			CallerEnabled: true,
		}
	case LogModeInfo:
		return Config{
			Level:         LogLevelInfo,
			TimeFormat:    time.RFC3339,
			CallerEnabled: true,
		}
	case LogModeProd:
		return Config{
			Level:      LogLevelInfo,
			TimeFormat: time.RFC3339Nano,
			NoColor:    true,
		}
	case LogModeTest:
		return Config{
			Level:      LogLevelError,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	default:
		return DefaultConfig()
	}
}

func InitWithMode(mode LogMode) {
	Init(ConfigForMode(mode))
}

func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	if cfg.Level == LogLevelDisabled {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		log = zerolog.New(io.Discard).With().Logger()
		zerolog.DefaultContextLogger = &log
		return
	}

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: cfg.TimeFormat,
			NoColor:    cfg.NoColor,
		}
	}

	switch cfg.Level {
	case LogLevelDebug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case LogLevelInfo:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case LogLevelWarn:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case LogLevelError:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat

	logCtx := zerolog.New(output).With().Timestamp()
	if cfg.CallerEnabled {
		logCtx = logCtx.Caller()
	}

	log = logCtx.Logger()
	zerolog.DefaultContextLogger = &log
}

func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func WithComponent(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log.With().Str("component", component).Logger()
}
