package logging

import (
	"log/slog"
	"os"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// InitLogger builds the process-wide logger. Output goes to stderr so
// benchmark result text on stdout stays machine-readable. The first call
// wins; later calls are no-ops.
func InitLogger(debug bool) {
	once.Do(func() {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == slog.TimeKey {
					attr.Value = slog.StringValue(attr.Value.Time().Format("2006-01-02T15:04:05"))
				}
				return attr
			},
		})
		logger = slog.New(handler)
	})
}

func GetLogger() *slog.Logger {
	if logger == nil {
		InitLogger(false)
	}
	return logger
}

func StringField(key, value string) slog.Attr {
	return slog.String(key, value)
}

func IntField(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

func ErrorField(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
