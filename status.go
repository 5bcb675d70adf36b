package statusview

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// SchedulerStatus is the overall state of a workflow run.
type SchedulerStatus int

const (
	SchedulerStatusNone SchedulerStatus = iota
	SchedulerStatusRunning
	SchedulerStatusError
	SchedulerStatusCancel
	SchedulerStatusSuccess
)

var schedulerStatusNames = map[SchedulerStatus]string{
	SchedulerStatusNone:    "not started",
	SchedulerStatusRunning: "running",
	SchedulerStatusError:   "failed",
	SchedulerStatusCancel:  "canceled",
	SchedulerStatusSuccess: "finished",
}

func (s SchedulerStatus) String() string {
	if name, ok := schedulerStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// IsTerminal reports whether the run has progressed past "not started" and
// "running".
func (s SchedulerStatus) IsTerminal() bool {
	return s != SchedulerStatusNone && s != SchedulerStatusRunning
}

// ParseSchedulerStatus accepts either the display name or the name used in
// configuration files ("none", "running", "error", "cancel", "success").
func ParseSchedulerStatus(value string) (SchedulerStatus, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none", "not started":
		return SchedulerStatusNone, nil
	case "running":
		return SchedulerStatusRunning, nil
	case "error", "failed":
		return SchedulerStatusError, nil
	case "cancel", "canceled":
		return SchedulerStatusCancel, nil
	case "success", "finished":
		return SchedulerStatusSuccess, nil
	}
	return SchedulerStatusNone, fmt.Errorf("unknown scheduler status %q", value)
}

// NodeStatus is the state of a single step within a run.
type NodeStatus int

const (
	NodeStatusNone NodeStatus = iota
	NodeStatusRunning
	NodeStatusError
	NodeStatusCancel
	NodeStatusSuccess
	NodeStatusSkipped
)

func (s NodeStatus) String() string {
	switch s {
	case NodeStatusNone:
		return "not started"
	case NodeStatusRunning:
		return "running"
	case NodeStatusError:
		return "failed"
	case NodeStatusCancel:
		return "canceled"
	case NodeStatusSuccess:
		return "finished"
	case NodeStatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Step is the definition of a workflow step. Only Name is needed for display.
type Step struct {
	Name        string   `json:"Name"`
	Description string   `json:"Description,omitempty"`
	Command     string   `json:"Command,omitempty"`
	Args        []string `json:"Args,omitempty"`
	Dir         string   `json:"Dir,omitempty"`
	Depends     []string `json:"Depends,omitempty"`
}

// Node is one executed or pending step within a run. Timestamps are kept as
// the strings written by the workflow engine; TimeEmpty marks "not set".
type Node struct {
	Step       *Step      `json:"Step"`
	Log        string     `json:"Log,omitempty"`
	StartedAt  string     `json:"StartedAt"`
	FinishedAt string     `json:"FinishedAt"`
	Status     NodeStatus `json:"Status"`
	StatusText string     `json:"StatusText,omitempty"`
	RetryCount int        `json:"RetryCount,omitempty"`
	DoneCount  int        `json:"DoneCount,omitempty"`
	Error      string     `json:"Error,omitempty"`
}

// Name returns the display name of the node's step.
func (n *Node) Name() string {
	if n == nil || n.Step == nil {
		return ""
	}
	return n.Step.Name
}

// HasStarted reports whether the node carries a usable start timestamp.
func (n *Node) HasStarted() bool {
	return n != nil && n.StartedAt != "" && n.StartedAt != TimeEmpty
}

// Status is a snapshot of one workflow run. Values are produced by the
// workflow engine and treated as read-only by every component here.
type Status struct {
	RequestID  string          `json:"RequestId"`
	Name       string          `json:"Name"`
	Status     SchedulerStatus `json:"Status"`
	StatusText string          `json:"StatusText"`
	PID        int             `json:"Pid"`
	Nodes      []*Node         `json:"Nodes"`
	StartedAt  string          `json:"StartedAt"`
	FinishedAt string          `json:"FinishedAt"`
	Log        string          `json:"Log,omitempty"`
	Params     string          `json:"Params,omitempty"`
}

// StatusFromJSON decodes a status file.
func StatusFromJSON(data []byte) (*Status, error) {
	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	if status.StatusText == "" {
		status.StatusText = status.Status.String()
	}
	return &status, nil
}

// ToJSON encodes the status in the status file format.
func (s *Status) ToJSON() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status: %w", err)
	}
	return data, nil
}

// CorrectRunningStatus marks a run that is still recorded as running as
// failed. It is applied to statuses whose owning process is known to be gone.
func (s *Status) CorrectRunningStatus() {
	if s.Status == SchedulerStatusRunning {
		s.Status = SchedulerStatusError
		s.StatusText = s.Status.String()
	}
}

// CorrectOrphanedStatus applies CorrectRunningStatus when the run's process
// is no longer alive according to alive. Statuses without a PID are left
// alone. It reports whether the status changed.
func (s *Status) CorrectOrphanedStatus(alive func(pid int) bool) bool {
	if s == nil || s.Status != SchedulerStatusRunning || s.PID <= 0 || alive(s.PID) {
		return false
	}
	s.CorrectRunningStatus()
	return true
}
