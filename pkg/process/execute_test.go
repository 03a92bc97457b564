package process

import (
	"context"
	"runtime"
	"testing"

	"github.com/trade-tools/webkeeper/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Simple test logger that implements logging.Logger interface
type TestLogger struct{}

func (l *TestLogger) Debugf(format string, args ...interface{}) {}
func (l *TestLogger) Infof(format string, args ...interface{})  {}
func (l *TestLogger) Warnf(format string, args ...interface{})  {}
func (l *TestLogger) Errorf(format string, args ...interface{}) {}

// getTestExecutable returns a platform-specific short-lived command
func getTestExecutable() (string, []string) {
	if runtime.GOOS == "windows" {
		return "C:\\Windows\\System32\\cmd.exe", []string{"/c", "echo", "test"}
	}
	return "/bin/echo", []string{"test"}
}

func TestNewStdExecuteCmdRunsProcess(t *testing.T) {
	executablePath, args := getTestExecutable()
	executeCmd := NewStdExecuteCmd(ExecutionConfig{
		ExecutablePath: executablePath,
		Args:           args,
	}, "test-exec", &TestLogger{})

	process, err := executeCmd(context.Background())
	require.NoError(t, err)
	require.NotNil(t, process)
	assert.Greater(t, process.Pid, 0)

	state, err := process.Wait()
	require.NoError(t, err)
	assert.True(t, state.Success())
}

func TestNewStdExecuteCmdNilContext(t *testing.T) {
	executablePath, args := getTestExecutable()
	executeCmd := NewStdExecuteCmd(ExecutionConfig{
		ExecutablePath: executablePath,
		Args:           args,
	}, "test-exec", &TestLogger{})

	process, err := executeCmd(nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Nil(t, process)
}

func TestNewStdExecuteCmdCancelledContext(t *testing.T) {
	executablePath, args := getTestExecutable()
	executeCmd := NewStdExecuteCmd(ExecutionConfig{
		ExecutablePath: executablePath,
		Args:           args,
	}, "test-exec", &TestLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	process, err := executeCmd(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsProcessError(err))
	assert.Nil(t, process)
}

func TestNewStdExecuteCmdExecutableNotFound(t *testing.T) {
	executeCmd := NewStdExecuteCmd(ExecutionConfig{
		ExecutablePath: "webkeeper-no-such-binary",
	}, "test-exec", &TestLogger{})

	process, err := executeCmd(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.Nil(t, process)
}

func TestNewStdExecuteCmdInvalidConfig(t *testing.T) {
	executeCmd := NewStdExecuteCmd(ExecutionConfig{}, "test-exec", &TestLogger{})

	process, err := executeCmd(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Nil(t, process)
}
