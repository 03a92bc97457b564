package process

import (
	"context"
	"os"
	"os/exec"

	"github.com/trade-tools/webkeeper/pkg/errors"
	"github.com/trade-tools/webkeeper/pkg/logging"
)

type ExecutionConfig struct {
	ExecutablePath   string   `yaml:"executable_path"`
	Args             []string `yaml:"args,omitempty"`
	Environment      []string `yaml:"environment,omitempty"`
	WorkingDirectory string   `yaml:"working_directory,omitempty"`
}

type ExecuteCmd func(ctx context.Context) (*os.Process, error)

// NewStdExecuteCmd creates an ExecuteCmd that launches the configured server
// executable with its output streams inherited from the supervisor.
func NewStdExecuteCmd(execution ExecutionConfig, id string, logger logging.Logger) ExecuteCmd {
	return func(ctx context.Context) (*os.Process, error) {
		// Validate context
		if ctx == nil {
			logger.Errorf("Context cannot be nil, id: %s", id)
			return nil, errors.NewValidationError("context cannot be nil", nil).WithContext("id", id)
		}

		// Validate execution configuration
		if err := ValidateExecutionConfig(execution); err != nil {
			logger.Errorf("Execution configuration validation failed, id: %s, error: %v", id, err)
			return nil, errors.NewValidationError("invalid execution configuration", err).WithContext("id", id)
		}

		// Refuse to launch once shutdown has begun
		if err := ctx.Err(); err != nil {
			return nil, errors.NewProcessError("launch aborted, context already cancelled", err).WithContext("id", id)
		}

		// Resolve bare command names against PATH
		executablePath, err := ResolveExecutablePath(execution.ExecutablePath)
		if err != nil {
			return nil, err
		}

		logger.Debugf("Executing process: id: %s, executable path: '%s', args: %v, working directory: '%s'",
			id, executablePath, execution.Args, execution.WorkingDirectory)

		env := os.Environ()
		for _, e := range execution.Environment {
			env = append(env, e)
		}

		// No exec.CommandContext here: its watchdog would SIGKILL the child
		// the instant the run context is cancelled, preempting the keeper's
		// SIGTERM-then-grace-period shutdown. The keeper solely owns
		// termination of running children.
		cmd := exec.Command(executablePath, execution.Args...)
		cmd.Dir = execution.WorkingDirectory // empty means inherit the supervisor's cwd
		cmd.Env = env

		// Output streams are inherited: the server writes where the supervisor writes
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		// Platform-specific setup is handled in execute_unix.go or execute_windows.go
		setupProcessAttributes(cmd)

		err = cmd.Start()
		if err != nil {
			return nil, errors.NewProcessError("failed to start the process", err).WithContext("id", id).WithContext("executable_path", executablePath)
		}

		logger.Infof("Successfully executed process, id: %s, PID: %d", id, cmd.Process.Pid)

		return cmd.Process, nil
	}
}

// ResolveExecutablePath resolves a command to an executable path, consulting
// PATH for bare names. A failed lookup is a not-found error so callers can
// tell a broken launch apart from a child that started and later exited.
func ResolveExecutablePath(path string) (string, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", errors.NewNotFoundError("executable not found: "+path, err).WithContext("path", path)
	}
	return resolved, nil
}
