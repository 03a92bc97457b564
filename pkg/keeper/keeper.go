package keeper

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/trade-tools/webkeeper/pkg/errors"
	"github.com/trade-tools/webkeeper/pkg/logging"
	"github.com/trade-tools/webkeeper/pkg/process"
)

// KeeperState represents the current phase of the restart loop
type KeeperState string

const (
	KeeperStateIdle     KeeperState = "idle"     // Loop not started yet
	KeeperStateSpawning KeeperState = "spawning" // Server launch in progress
	KeeperStateRunning  KeeperState = "running"  // Server process alive, waiting for exit
	KeeperStateDelaying KeeperState = "delaying" // Server exited, restart delay in progress
	KeeperStateStopped  KeeperState = "stopped"  // Loop ended (shutdown or launch failure)
)

// KeeperDiagnostics provides observable restart-loop status
type KeeperDiagnostics struct {
	State    KeeperState
	Spawns   int    // Total launch attempts that succeeded
	Restarts int    // Spawns beyond the first
	ChildPID int    // PID of the current or most recent child
	LastExit string // Termination status of the most recent exit
}

// KeeperOptions configures a Keeper
type KeeperOptions struct {
	ServiceID        string
	RestartDelay     time.Duration // Pause between child exit and respawn
	ForceKillTimeout time.Duration // Grace period before killing on shutdown
}

const defaultForceKillTimeout = 10 * time.Second

// Keeper keeps a single server process alive: spawn, wait for exit,
// delay, respawn, forever. Exactly one child exists per iteration and
// the handle never outlives the iteration.
type Keeper struct {
	serviceID        string
	executeCmd       process.ExecuteCmd
	restartDelay     time.Duration
	forceKillTimeout time.Duration
	logger           logging.Logger

	mutex    sync.Mutex
	state    KeeperState
	spawns   int
	childPID int
	lastExit string
}

func NewKeeper(options KeeperOptions, executeCmd process.ExecuteCmd, logger logging.Logger) *Keeper {
	restartDelay := options.RestartDelay
	if restartDelay == 0 {
		restartDelay = DefaultRestartDelay
	}
	forceKillTimeout := options.ForceKillTimeout
	if forceKillTimeout == 0 {
		forceKillTimeout = defaultForceKillTimeout
	}

	return &Keeper{
		serviceID:        options.ServiceID,
		executeCmd:       executeCmd,
		restartDelay:     restartDelay,
		forceKillTimeout: forceKillTimeout,
		logger:           logger,
		state:            KeeperStateIdle,
	}
}

// Run drives the restart loop until ctx is cancelled. It has no normal
// termination of its own: a nil return means shutdown was requested, a
// non-nil return means the server could not be launched at all. Launch
// failures are not retried, since respawning a command that cannot start
// would spin without ever making progress.
func (k *Keeper) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}
	if k.executeCmd == nil {
		return errors.NewValidationError("execute command is required", nil)
	}

	for {
		k.setState(KeeperStateSpawning)

		child, err := k.executeCmd(ctx)
		if err != nil {
			k.setState(KeeperStateStopped)
			// A launch refused because shutdown already started is not a failure
			if ctx.Err() != nil {
				return nil
			}
			return errors.NewProcessError("failed to launch server process", err).WithContext("service", k.serviceID)
		}

		k.noteSpawn(child.Pid)
		k.logger.Infof("Server process started, service: %s, PID: %d", k.serviceID, child.Pid)

		exited := make(chan *os.ProcessState, 1)
		go func() {
			state, waitErr := child.Wait()
			if waitErr != nil {
				k.logger.Errorf("Wait failed, service: %s, PID: %d, error: %v", k.serviceID, child.Pid, waitErr)
			}
			exited <- state
		}()

		select {
		case state := <-exited:
			// Clean exit and crash are treated identically: both restart
			k.noteExit(state)
			k.logger.Warnf("Server process exited, service: %s, PID: %d, status: %v", k.serviceID, child.Pid, state)
		case <-ctx.Done():
			k.shutdownChild(child, exited)
			k.setState(KeeperStateStopped)
			return nil
		}

		k.setState(KeeperStateDelaying)
		k.logger.Infof("Restarting server in %v, service: %s, restarts so far: %d",
			k.restartDelay, k.serviceID, k.Diagnostics().Restarts)

		delay := time.NewTimer(k.restartDelay)
		select {
		case <-delay.C:
		case <-ctx.Done():
			delay.Stop()
			k.setState(KeeperStateStopped)
			return nil
		}
	}
}

// State returns the current loop state (for monitoring/debugging)
func (k *Keeper) State() KeeperState {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.state
}

// Diagnostics returns a snapshot of the restart-loop status
func (k *Keeper) Diagnostics() KeeperDiagnostics {
	k.mutex.Lock()
	defer k.mutex.Unlock()

	restarts := 0
	if k.spawns > 0 {
		restarts = k.spawns - 1
	}

	return KeeperDiagnostics{
		State:    k.state,
		Spawns:   k.spawns,
		Restarts: restarts,
		ChildPID: k.childPID,
		LastExit: k.lastExit,
	}
}

// shutdownChild terminates the in-flight child during supervisor shutdown:
// signal the process group, wait out the grace period, then kill.
func (k *Keeper) shutdownChild(child *os.Process, exited <-chan *os.ProcessState) {
	k.logger.Infof("Shutting down server process, service: %s, PID: %d", k.serviceID, child.Pid)

	if err := process.SendTerminationSignal(child.Pid); err != nil {
		k.logger.Warnf("Failed to signal server process, service: %s, PID: %d, error: %v", k.serviceID, child.Pid, err)
	}

	select {
	case state := <-exited:
		k.noteExit(state)
		k.logger.Infof("Server process exited on shutdown, service: %s, PID: %d, status: %v", k.serviceID, child.Pid, state)
	case <-time.After(k.forceKillTimeout):
		k.logger.Warnf("Server process did not exit within %v, killing, service: %s, PID: %d",
			k.forceKillTimeout, k.serviceID, child.Pid)
		if err := child.Kill(); err != nil {
			k.logger.Errorf("Failed to kill server process, service: %s, PID: %d, error: %v", k.serviceID, child.Pid, err)
			return
		}
		k.noteExit(<-exited)
	}
}

func (k *Keeper) setState(state KeeperState) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	k.state = state
}

func (k *Keeper) noteSpawn(pid int) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	k.state = KeeperStateRunning
	k.spawns++
	k.childPID = pid
}

func (k *Keeper) noteExit(state *os.ProcessState) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if state != nil {
		k.lastExit = state.String()
	} else {
		k.lastExit = "wait failed"
	}
}
