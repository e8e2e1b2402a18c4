package logger

// LogEntry is a single recorded event. Exactly one of the event fields is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	RunCommand        *RunCommand        `json:"run_command,omitempty"`
	UnknownCommand    *UnknownCommand    `json:"unknown_command,omitempty"`
	SyntaxError       *SyntaxError       `json:"syntax_error,omitempty"`
	InvalidInvocation *InvalidInvocation `json:"invalid_invocation,omitempty"`
	JobStarted        *JobStarted        `json:"job_started,omitempty"`
	JobReclaimed      *JobReclaimed      `json:"job_reclaimed,omitempty"`
	Builtin           *Builtin           `json:"builtin,omitempty"`
}

// LogType is implemented by every event payload.
type LogType interface {
	attach(le *LogEntry)
}

// GetLogType returns the event carried by the entry, or nil if none is set.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.RunCommand != nil:
		return le.RunCommand
	case le.UnknownCommand != nil:
		return le.UnknownCommand
	case le.SyntaxError != nil:
		return le.SyntaxError
	case le.InvalidInvocation != nil:
		return le.InvalidInvocation
	case le.JobStarted != nil:
		return le.JobStarted
	case le.JobReclaimed != nil:
		return le.JobReclaimed
	case le.Builtin != nil:
		return le.Builtin
	default:
		return nil
	}
}

// RunCommand is logged when an external program is started.
type RunCommand struct {
	Command             []string `json:"command"`
	ResolvedCommandPath string   `json:"resolved_command_path"`
	Async               bool     `json:"async,omitempty"`
}

// UnknownCommand is logged when a program can't be found on the search path.
type UnknownCommand struct {
	Command      []string `json:"command"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// SyntaxError is logged when a line fails to parse.
type SyntaxError struct {
	Line string `json:"line"`
	Near string `json:"near"`
}

// InvalidInvocation is logged when a built-in is called with bad options.
type InvalidInvocation struct {
	Command []string `json:"command"`
	Error   string   `json:"error"`
}

// JobStarted is logged when a background process is launched.
type JobStarted struct {
	Pid     int      `json:"pid"`
	Command []string `json:"command"`
}

// JobReclaimed is logged when a terminated background process is collected.
type JobReclaimed struct {
	Pid      int    `json:"pid"`
	ExitCode int    `json:"exit_code"`
	Signal   string `json:"signal,omitempty"`
}

// Builtin is logged when a built-in command runs.
type Builtin struct {
	Command []string `json:"command"`
	Status  int      `json:"status"`
}

func (e *RunCommand) attach(le *LogEntry)        { le.RunCommand = e }
func (e *UnknownCommand) attach(le *LogEntry)    { le.UnknownCommand = e }
func (e *SyntaxError) attach(le *LogEntry)       { le.SyntaxError = e }
func (e *InvalidInvocation) attach(le *LogEntry) { le.InvalidInvocation = e }
func (e *JobStarted) attach(le *LogEntry)        { le.JobStarted = e }
func (e *JobReclaimed) attach(le *LogEntry)      { le.JobReclaimed = e }
func (e *Builtin) attach(le *LogEntry)           { le.Builtin = e }
