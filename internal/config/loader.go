package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"syscall"

	"github.com/kelseyhightower/envconfig"
)

// ErrQueueDefinitionsChanged is reported when a reload found different queue definitions.
// A running factory keeps the definitions it was built with until the service restarts.
var ErrQueueDefinitionsChanged = errors.New("queue definitions changed, restart required to apply")

// Loader handles configuration reloading and dumping.
type Loader struct {
	cfg              *ServiceConfig
	out              io.Writer
	mutex            sync.Mutex
	configSignalChan chan os.Signal
	reloadErrors     chan error
}

// NewLoader creates a new config loader instance. Dumps are written to out.
func NewLoader(cfg *ServiceConfig, out io.Writer) *Loader {
	return &Loader{
		cfg:              cfg,
		out:              out,
		configSignalChan: make(chan os.Signal, 1),
		reloadErrors:     make(chan error, 1),
	}
}

// WatchConfigSignals monitors for SIGHUP (reload) and SIGUSR1 (dump) signals.
// It returns a channel that will receive reload results for logging by the caller.
func (l *Loader) WatchConfigSignals(ctx context.Context) <-chan error {
	signal.Notify(l.configSignalChan, syscall.SIGHUP, syscall.SIGUSR1)

	go func() {
		defer signal.Stop(l.configSignalChan)
		defer close(l.reloadErrors)

		for {
			select {
			case <-ctx.Done():
				return

			case sig := <-l.configSignalChan:
				switch sig {
				case syscall.SIGHUP:
					l.reportReloadStatus(l.Reload())

				case syscall.SIGUSR1:
					l.DumpConfig()
				}
			}
		}
	}()

	return l.reloadErrors
}

// DumpConfig writes the current configuration as JSON. Passwords are never included.
func (l *Loader) DumpConfig() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	configJSON, err := json.MarshalIndent(l.cfg, "", "  ")
	if err != nil {
		fmt.Fprintf(l.out, "Error marshaling config: %v\n", err)

		return
	}

	fmt.Fprintf(l.out, "\n=== Configuration Dump ===\n%s\n=== End Configuration ===\n\n", string(configJSON))
}

// Reload re-reads and validates the queue definitions file.
func (l *Loader) Reload() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	defs, err := LoadQueueDefinitions(l.cfg.MessageQueues.ConfigFile)
	if err != nil {
		return err
	}

	if err := ValidateQueueDefinitions(defs); err != nil {
		return fmt.Errorf("invalid queue definitions: %w", err)
	}

	if !reflect.DeepEqual(defs, l.cfg.MessageQueues.Definitions) {
		return ErrQueueDefinitionsChanged
	}

	return nil
}

// Init config from environment variables.
func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if len(ServiceVersion) != 0 {
		cfg.AppConfig.ServiceVersion = ServiceVersion
	}

	if len(CommitSHA) != 0 {
		cfg.AppConfig.CommitSHA = CommitSHA
	}

	if len(APIVersion) != 0 {
		cfg.AppConfig.APIVersion = APIVersion
	}

	return cfg, nil
}

// Load reads the environment and then the queue definitions file it points to.
func Load() (*ServiceConfig, error) {
	cfg, err := Init()
	if err != nil {
		return nil, err
	}

	defs, err := LoadQueueDefinitions(cfg.MessageQueues.ConfigFile)
	if err != nil {
		return nil, err
	}

	if err := ValidateQueueDefinitions(defs); err != nil {
		return nil, fmt.Errorf("invalid queue definitions: %w", err)
	}

	cfg.MessageQueues.Definitions = defs

	return cfg, nil
}

// reportReloadStatus sends reload status (error or nil for success) to reloadErrors channel.
// It uses non-blocking send to avoid blocking if no receiver is ready.
func (l *Loader) reportReloadStatus(err error) {
	select {
	case l.reloadErrors <- err:
	default:
	}
}
