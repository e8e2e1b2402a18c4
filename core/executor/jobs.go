package executor

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/treesh/treesh/core/logger"
	"golang.org/x/sys/unix"
)

// Job is a command running in the background.
type Job struct {
	Pid  int
	Argv []string

	proc *os.Process
}

// Reclaimed describes a background job that terminated.
type Reclaimed struct {
	Pid      int
	ExitCode int
	// Signal is the name of the signal that killed the job, if any.
	Signal string
}

func (r Reclaimed) String() string {
	switch {
	case r.Signal != "":
		return fmt.Sprintf("%d terminated (signal %s)", r.Pid, r.Signal)
	case r.ExitCode != 0:
		return fmt.Sprintf("%d terminated (exit %d)", r.Pid, r.ExitCode)
	default:
		return fmt.Sprintf("%d terminated", r.Pid)
	}
}

// JobTable tracks background jobs until they are reclaimed. It is safe for
// concurrent use.
type JobTable struct {
	// Out receives a line for each reclaimed job.
	Out    io.Writer
	Events *logger.SessionLogger

	mu   sync.Mutex
	jobs map[int]*Job
}

// NewJobTable creates an empty table reporting to out.
func NewJobTable(out io.Writer, events *logger.SessionLogger) *JobTable {
	return &JobTable{
		Out:    out,
		Events: events,
		jobs:   make(map[int]*Job),
	}
}

// Add registers a started background process. If announce is not nil it is
// called before the job becomes visible to Reap, so the job's termination is
// never reported ahead of it.
func (t *JobTable) Add(proc *os.Process, argv []string, announce func(*Job)) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.jobs == nil {
		t.jobs = make(map[int]*Job)
	}

	job := &Job{Pid: proc.Pid, Argv: argv, proc: proc}
	if announce != nil {
		announce(job)
	}
	t.jobs[job.Pid] = job
	return job
}

// SetOut changes where reclaimed jobs are reported. It may be called while
// Watch is running.
func (t *JobTable) SetOut(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Out = w
}

// Len returns the number of jobs not yet reclaimed.
func (t *JobTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.jobs)
}

// Pids returns the registered pids in ascending order.
func (t *JobTable) Pids() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.pids()
}

func (t *JobTable) pids() []int {
	var pids []int
	for pid := range t.jobs {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// Reap collects every registered job that has terminated without blocking,
// reports it, and releases its process handle. Unregistered children are
// never waited for, so synchronous waits keep their status.
func (t *JobTable) Reap() []Reclaimed {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Reclaimed
	for _, pid := range t.pids() {
		var ws unix.WaitStatus
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			// Already collected elsewhere, nothing to report.
			t.release(pid)
			continue
		case err != nil || wpid != pid:
			continue
		case !ws.Exited() && !ws.Signaled():
			// Stopped or continued.
			continue
		}

		r := Reclaimed{Pid: pid, ExitCode: ws.ExitStatus()}
		if ws.Signaled() {
			r.Signal = unix.SignalName(ws.Signal())
			if r.Signal == "" {
				r.Signal = ws.Signal().String()
			}
		}
		t.release(pid)
		out = append(out, r)

		if t.Out != nil {
			fmt.Fprintln(t.Out, r)
		}
		if t.Events != nil {
			t.Events.Record(&logger.JobReclaimed{Pid: r.Pid, ExitCode: r.ExitCode, Signal: r.Signal})
		}
	}
	return out
}

func (t *JobTable) release(pid int) {
	if job, ok := t.jobs[pid]; ok {
		job.proc.Release()
		delete(t.jobs, pid)
	}
}
