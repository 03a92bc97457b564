package keeper

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/trade-tools/webkeeper/pkg/config"
	"github.com/trade-tools/webkeeper/pkg/errors"
	"github.com/trade-tools/webkeeper/pkg/logging"
	"github.com/trade-tools/webkeeper/pkg/process"
)

// RunOptions configures a supervisor run
type RunOptions struct {
	ServiceConfigFile string        // Service-owned JSON config (port lives here)
	OptionsFile       string        // Supervisor-owned YAML options; absence is fine
	RunDuration       time.Duration // Stop after this long; zero means run forever
}

const DefaultServiceConfigFile = "config.json"

// Run loads configuration, builds the server command and drives the restart
// loop until the supervisor is told to stop.
func Run(options RunOptions, logger logging.Logger) error {
	logger.Infof("Keeper runner starting...")

	serviceConfigFile := options.ServiceConfigFile
	if serviceConfigFile == "" {
		serviceConfigFile = DefaultServiceConfigFile
	}
	logger.Infof("Using SERVICE CONFIGURATION FILE: %s", serviceConfigFile)

	// Load service configuration; the supervisor must not start without it
	serviceConfig, err := config.LoadConfigFromFile(serviceConfigFile)
	if err != nil {
		return errors.NewIOError("failed to load service configuration", err).WithContext("config_file", serviceConfigFile)
	}
	if err := config.ValidateConfig(serviceConfig); err != nil {
		return errors.NewValidationError("service configuration validation failed", err).WithContext("config_file", serviceConfigFile)
	}

	logger.Infof("Service configuration loaded, port: %d", serviceConfig.Port)

	// Load keeper options; a missing file means defaults
	keeperConfig := DefaultConfig()
	if options.OptionsFile != "" {
		if _, statErr := os.Stat(options.OptionsFile); statErr == nil {
			keeperConfig, err = LoadConfigFromFile(options.OptionsFile)
			if err != nil {
				return err
			}
			logger.Infof("Keeper options loaded from %s", options.OptionsFile)
		} else if !os.IsNotExist(statErr) {
			return errors.NewIOError("failed to stat options file", statErr).WithContext("options_file", options.OptionsFile)
		} else {
			logger.Infof("No options file at %s, using defaults", options.OptionsFile)
		}
	}
	if err := ValidateConfig(keeperConfig); err != nil {
		return errors.NewValidationError("keeper options validation failed", err).WithContext("options_file", options.OptionsFile)
	}

	execution := keeperConfig.ServerExecution(serviceConfig.Port)
	logger.Infof("Server command: %s %v, restart delay: %v",
		execution.ExecutablePath, execution.Args, keeperConfig.Restart.Delay)

	executeCmd := process.NewStdExecuteCmd(execution, "web-interface", logger)

	ctx := context.Background()
	if options.RunDuration > 0 {
		logger.Infof("Using RUN DURATION of %v", options.RunDuration)
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, options.RunDuration)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Enable signal handling
	sig := make(chan os.Signal, 1)
	if runtime.GOOS == "windows" {
		signal.Notify(sig) // Unix signals not implemented on Windows
	} else {
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	}
	defer signal.Stop(sig)

	go func() {
		select {
		case s := <-sig:
			logger.Infof("Received signal: %v, shutting down...", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	keeper := NewKeeper(KeeperOptions{
		ServiceID:    "web-interface",
		RestartDelay: keeperConfig.Restart.Delay,
	}, executeCmd, logger)

	return keeper.Run(ctx)
}
