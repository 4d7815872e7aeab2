package streamtest

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
)

var ErrAlreadyConfigured = errors.New("configuration already loaded", j.C("ERR_2e6a8c1f45b09d73"))

// Config is the process wide configuration for every Recorder.
// It is loaded once, either from Configure or from the environment on first use,
// and is read-only afterwards.
type Config struct {
	// DefaultTimeout bounds every await on recorders that don't set their own timeout.
	// Zero means awaits are only bounded by the caller's context.
	// Read from STREAMTEST_TIMEOUT.
	DefaultTimeout time.Duration

	// CancelTimeout is how long teardown waits for a producer to terminate.
	// Defaults to 15 seconds.
	// Read from STREAMTEST_CANCEL_TIMEOUT.
	CancelTimeout time.Duration

	// Debug logs every event as it is recorded.
	// Read from STREAMTEST_DEBUG.
	Debug bool
}

func (c *Config) setDefaults() {
	if c.CancelTimeout <= 0 {
		c.CancelTimeout = 15 * time.Second
	}
	if c.DefaultTimeout < 0 {
		c.DefaultTimeout = 0
	}
}

var (
	configOnce sync.Once
	config     Config
)

// Configure sets the process wide configuration. It must be called before any
// Recorder is created, typically from TestMain, and only once.
func Configure(c Config) error {
	var applied bool
	configOnce.Do(func() {
		c.setDefaults()
		config = c
		applied = true
	})
	if !applied {
		return ErrAlreadyConfigured
	}
	return nil
}

func loadConfig() Config {
	configOnce.Do(func() {
		c, err := configFromEnv(os.Getenv)
		if err != nil {
			// NoReturnErr: Fall back to the defaults
			log.Error(context.Background(), errors.Wrap(err, "load streamtest config"))
		}
		c.setDefaults()
		config = c
	})
	return config
}

func configFromEnv(getenv func(string) string) (Config, error) {
	var c Config
	if v := getenv("STREAMTEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "parse timeout", j.KS("STREAMTEST_TIMEOUT", v))
		}
		c.DefaultTimeout = d
	}
	if v := getenv("STREAMTEST_CANCEL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "parse cancel timeout", j.KS("STREAMTEST_CANCEL_TIMEOUT", v))
		}
		c.CancelTimeout = d
	}
	if v := getenv("STREAMTEST_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "parse debug", j.KS("STREAMTEST_DEBUG", v))
		}
		c.Debug = b
	}
	return c, nil
}
