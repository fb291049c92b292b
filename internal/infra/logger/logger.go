package logger

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sifan077/LinkPulse/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

const (
	EncodingConsole = "console"
	EncodingJSON    = "json"

	consoleTimeLayout = "2006-01-02 15:04:05.000"
)

// Config drives how the zap logger is built.
type Config struct {
	Development bool
	Level       string
	// Encoding is "console" or "json"; empty picks console in development.
	Encoding string
	Service  string
}

// FromApp derives logger settings from the application section of the config.
func FromApp(app config.AppConfig, service string) Config {
	return Config{
		Development: app.IsDevelopment(),
		Level:       app.LogLevel,
		Service:     service,
	}
}

var (
	mu     sync.RWMutex
	global *zap.Logger
)

// Init builds a logger and installs it as the process-wide default.
func Init(cfg Config) (*zap.Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	prev := global
	global = l
	mu.Unlock()

	if prev != nil {
		_ = prev.Sync()
	}
	zap.ReplaceGlobals(l)
	return l, nil
}

// MustInit is Init for process entrypoints.
func MustInit(cfg Config) *zap.Logger {
	l, err := Init(cfg)
	if err != nil {
		panic(err)
	}
	return l
}

// L returns the installed logger, or a development logger before Init runs.
func L() *zap.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		fallback, err := New(Config{Development: true})
		if err != nil {
			fallback = zap.NewNop()
		}
		global = fallback
	}
	return global
}

// Named returns a child of the installed logger.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes the installed logger. Errors from syncing a terminal are dropped.
func Sync() error {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		return nil
	}

	err := l.Sync()
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, os.ErrInvalid) {
		return nil
	}
	return err
}

// New assembles a logger core from cfg. Production cores are sampled.
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level, cfg.Development)
	if err != nil {
		return nil, err
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = EncodingJSON
		if cfg.Development {
			encoding = EncodingConsole
		}
	}
	encoder, err := newEncoder(encoding, colorOutput())
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	if !cfg.Development {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}

	return zap.New(core, opts...), nil
}

// ParseLevel maps a textual level onto zap. Empty means debug in development
// and info otherwise.
func ParseLevel(raw string, development bool) (zapcore.Level, error) {
	if strings.TrimSpace(raw) == "" {
		if development {
			return zapcore.DebugLevel, nil
		}
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logger: invalid level %q: %w", raw, err)
	}
	return level, nil
}

func newEncoder(encoding string, color bool) (zapcore.Encoder, error) {
	ec := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	switch encoding {
	case EncodingConsole:
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(consoleTimeLayout)
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		if color {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		ec.ConsoleSeparator = " | "
		return zapcore.NewConsoleEncoder(ec), nil
	case EncodingJSON:
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(ec), nil
	default:
		return nil, fmt.Errorf("logger: unknown encoding %q", encoding)
	}
}

// colorOutput honours NO_COLOR and only colours a terminal stdout.
func colorOutput() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
