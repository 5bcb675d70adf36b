package statusview

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

const statusFile = `{
  "RequestId": "req-42",
  "Name": "nightly",
  "Status": 4,
  "StatusText": "finished",
  "Pid": 12345,
  "Nodes": [
    {"Step": {"Name": "build", "Command": "make"}, "StartedAt": "2024-01-01 00:00:05", "FinishedAt": "2024-01-01 00:00:20", "Status": 4},
    {"Step": {"Name": "notify"}, "StartedAt": "-", "FinishedAt": "-", "Status": 0}
  ],
  "StartedAt": "2024-01-01 00:00:00",
  "FinishedAt": "2024-01-01 00:00:20"
}`

func TestStatusFromJSON(t *testing.T) {
	status, err := StatusFromJSON([]byte(statusFile))
	require.NoError(t, err)
	require.Equal(t, "req-42", status.RequestID)
	require.Equal(t, SchedulerStatusSuccess, status.Status)
	require.Equal(t, 12345, status.PID)
	require.Len(t, status.Nodes, 2)
	require.Equal(t, "build", status.Nodes[0].Name())
	require.True(t, status.Nodes[0].HasStarted())
	require.False(t, status.Nodes[1].HasStarted())

	data, err := status.ToJSON()
	require.NoError(t, err)
	again, err := StatusFromJSON(data)
	require.NoError(t, err)
	require.Equal(t, status, again)

	_, err = StatusFromJSON([]byte("{"))
	require.Error(t, err)
}

func TestStatusTextDefaultsFromStatus(t *testing.T) {
	status, err := StatusFromJSON([]byte(`{"Name": "x", "Status": 2}`))
	require.NoError(t, err)
	require.Equal(t, "failed", status.StatusText)
}

func TestCorrectRunningStatus(t *testing.T) {
	status := &Status{Name: "test", Status: SchedulerStatusRunning}
	status.CorrectRunningStatus()
	require.Equal(t, SchedulerStatusError, status.Status)
	require.Equal(t, "failed", status.StatusText)

	done := &Status{Name: "test", Status: SchedulerStatusSuccess}
	done.CorrectRunningStatus()
	require.Equal(t, SchedulerStatusSuccess, done.Status)
}

func TestSchedulerStatus(t *testing.T) {
	require.False(t, SchedulerStatusNone.IsTerminal())
	require.False(t, SchedulerStatusRunning.IsTerminal())
	require.True(t, SchedulerStatusError.IsTerminal())
	require.True(t, SchedulerStatusCancel.IsTerminal())
	require.True(t, SchedulerStatusSuccess.IsTerminal())
	require.Equal(t, "unknown(9)", SchedulerStatus(9).String())

	parsed, err := ParseSchedulerStatus("Canceled")
	require.NoError(t, err)
	require.Equal(t, SchedulerStatusCancel, parsed)
	_, err = ParseSchedulerStatus("paused")
	require.Error(t, err)
}

func TestNodeNameWithoutStep(t *testing.T) {
	var n *Node
	require.Equal(t, "", n.Name())
	require.Equal(t, "", (&Node{}).Name())
	require.False(t, n.HasStarted())
}

func TestCorrectOrphanedStatus(t *testing.T) {
	dead := func(int) bool { return false }
	alive := func(int) bool { return true }

	orphan := &Status{Status: SchedulerStatusRunning, PID: 4242}
	require.True(t, orphan.CorrectOrphanedStatus(dead))
	require.Equal(t, SchedulerStatusError, orphan.Status)

	running := &Status{Status: SchedulerStatusRunning, PID: 4242}
	require.False(t, running.CorrectOrphanedStatus(alive))
	require.Equal(t, SchedulerStatusRunning, running.Status)

	// Without a PID there is nothing to check
	noPID := &Status{Status: SchedulerStatusRunning}
	require.False(t, noPID.CorrectOrphanedStatus(dead))
	require.Equal(t, SchedulerStatusRunning, noPID.Status)

	done := &Status{Status: SchedulerStatusSuccess, PID: 4242}
	require.False(t, done.CorrectOrphanedStatus(dead))

	var missing *Status
	require.False(t, missing.CorrectOrphanedStatus(dead))
}

func TestProcessAlive(t *testing.T) {
	require.True(t, ProcessAlive(os.Getpid()))
	require.False(t, ProcessAlive(0))
	require.False(t, ProcessAlive(-1))
}
