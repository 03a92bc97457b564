package main

import (
	"fmt"
	"os"
	"time"

	"github.com/trade-tools/webkeeper/pkg/keeper"
	"github.com/trade-tools/webkeeper/pkg/logging"

	flags "github.com/jessevdk/go-flags"
)

type flagOptions struct {
	ConfigFile  string        `long:"config" description:"path to the service configuration file (JSON)" default:"config.json"`
	OptionsFile string        `long:"options" description:"path to the supervisor options file (YAML)" default:"webkeeper.yaml"`
	LogLevel    string        `long:"log-level" description:"log level: debug, info, warn or error" default:"info"`
	RunDuration time.Duration `long:"run-duration" description:"stop after this duration (0 means run forever)"`
}

func logPrefix(module string) string {
	return fmt.Sprintf("module: %s , ", module)
}

func main() {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	var err error
	_, err = parser.ParseArgs(argv)
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v", err)
		os.Exit(1)
	}

	logFuncs, err := logging.NewZapLogFuncs(opts.LogLevel)
	if err != nil {
		fmt.Printf("Logger setup failed: %v", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(logPrefix("webkeeper"), logFuncs)

	logger.Infof("opts: %+v", opts)

	logger.Infof("Starting...")

	err = keeper.Run(keeper.RunOptions{
		ServiceConfigFile: opts.ConfigFile,
		OptionsFile:       opts.OptionsFile,
		RunDuration:       opts.RunDuration,
	}, logger)
	if err != nil {
		logger.Errorf("Keeper exited with error: %v", err)
		os.Exit(1)
	}
}
