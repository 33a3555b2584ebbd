package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"split-or-steal/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu     sync.RWMutex
	sink   io.Writer = os.Stdout
	closer io.Closer
)

// Init installs the global zerolog logger described by cfg. When cfg.File is
// set, logs go to stdout and to a size-limited file.
func Init(cfg config.LogConfig) error {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	var fileCloser io.Closer
	if cfg.File != "" {
		w, err := newSizeLimitedWriter(cfg.File, cfg.MaxMB)
		if err != nil {
			return err
		}
		out = io.MultiWriter(os.Stdout, w)
		fileCloser = w
	}

	mu.Lock()
	if closer != nil {
		_ = closer.Close()
	}
	sink, closer = out, fileCloser
	mu.Unlock()

	var console io.Writer = out
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: out}
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(console).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return nil
}

// Writer returns the raw sink chosen by Init for handlers that format their
// own records, such as slog JSON request logs.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return sink
}
