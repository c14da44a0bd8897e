package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LoggerContextKey ContextKey = "request.logger"
	megabyte                    = 1 << 20
)

// RotatingFileWriter is a concurrent safe file-based logs writer used as zap
// WriteSyncer. A new file is opened in the log folder once the current one
// would exceed the max size.
type RotatingFileWriter struct {
	mu     sync.Mutex
	clock  Clocker
	file   *os.File
	folder string
	max    int64
	size   int64
	isProd bool
}

func NewRotatingFileWriter(config *Config, clock Clocker) *RotatingFileWriter {
	return &RotatingFileWriter{
		clock:  clock,
		folder: config.LogFolder,
		max:    int64(config.LogMaxSize) * megabyte,
		isProd: config.IsProduction,
	}
}

// Close closes the current log file.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotatingFileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Write implements the io.Writer interface and rotates the file on max size.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	pLen := int64(len(p))
	if pLen > w.max {
		return 0, fmt.Errorf("logging: log size %d exceeds max file size %d", pLen, w.max)
	}
	if w.file == nil || pLen+w.size > w.max {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *RotatingFileWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
	}
	path := CreateLogFilePath(w.folder, w.isProd, w.clock.Now())
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file = file
	w.size = 0
	return nil
}

// stdoutSyncer avoids the `Handle is invalid` error when calling Sync() on os.Stdout.
type stdoutSyncer struct {
	out *os.File
}

func (s *stdoutSyncer) Sync() error {
	return nil
}

func (s *stdoutSyncer) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func newEncoderConfig(isProd bool) zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	if isProd {
		cfg = zap.NewProductionEncoderConfig()
	}
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.LevelKey = "lvl"
	cfg.NameKey = "name"
	cfg.MessageKey = "msg"
	cfg.CallerKey = "caller"
	cfg.StacktraceKey = "skt"
	return cfg
}

// SetupLogging initializes the logging module. In production all logs are saved
// to the rotating file. In development the same logs are printed to standard
// output as well. Stacktraces are only added to fatal logs. The clock provides
// UTC timestamps in production and local ones in development.
func SetupLogging(config *Config, w *RotatingFileWriter, clock TickerClocker) (*zap.Logger, func() error) {
	encoderConfig := newEncoderConfig(config.IsProduction)
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), w, config.LogLevel),
	}
	if !config.IsProduction {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(&stdoutSyncer{os.Stdout}),
			config.LogLevel,
		))
	}

	logger := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.FatalLevel),
		zap.WithClock(clock),
	).With(
		zap.String("app.commit", config.GitCommit),
		zap.String("app.tag", config.GitTag),
		zap.String("app.built", config.BuildTime),
	)

	flusher := func() error {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("[flush logs]: %w", err)
		}
		return nil
	}

	return logger, flusher
}

// GetLoggerFromContext retrieves the request scoped logger from the context.
// If the logger can't be retrieved it returns the initial logger of the App.
func (api *APIHandler) GetLoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*zap.Logger); ok {
		return logger
	}
	return api.logger
}

// CreateLogFilePath returns the path of a log file created at t.
func CreateLogFilePath(folder string, isProd bool, t time.Time) string {
	env := "dev"
	if isProd {
		env = "prod"
	}
	return filepath.Join(folder, fmt.Sprintf("%s.%s.log", t.Format("20060102.150405"), env))
}
