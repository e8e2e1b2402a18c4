package executor

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// IgnoreInteractiveSignals makes the shell immune to terminal stop and quit
// requests. Spawned programs inherit the ignored dispositions.
func IgnoreInteractiveSignals() {
	signal.Ignore(unix.SIGTSTP, unix.SIGQUIT)
}

// CatchInterrupt keeps an interrupt from terminating the shell while the
// foreground program receives it. Programs started afterwards get the default
// interrupt disposition back. The returned func undoes the effect.
func CatchInterrupt() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGINT)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

// Watch reaps terminated jobs each time a child changes state, until ctx is
// done.
func (t *JobTable) Watch(ctx context.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGCHLD)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				t.Reap()
			}
		}
	}()
}
