package statusview

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var timelineHeader = []string{
	"gantt",
	"title Finished timeline",
	"dateFormat YYYY-MM-DD HH:mm:ss",
	"axisFormat %H:%M:%S",
	"todayMarker off",
}

// BuildTimeline derives a mermaid Gantt description from a run. It returns
// false when the run has no timeline to show: a nil status, or a run that is
// not started or still running, whatever its nodes look like.
func BuildTimeline(status *Status) (string, bool) {
	return BuildTimelineIn(status, time.Local)
}

// BuildTimelineIn is BuildTimeline with timestamps carrying a zone converted
// to loc.
func BuildTimelineIn(status *Status, loc *time.Location) (string, bool) {
	if status == nil || !status.Status.IsTerminal() {
		return "", false
	}
	lines := make([]string, 0, len(timelineHeader)+len(status.Nodes))
	lines = append(lines, timelineHeader...)
	for _, node := range startedNodes(status.Nodes) {
		lines = append(lines, fmt.Sprintf("%s : %s,%s",
			node.Name(),
			FormatTimelineTime(node.StartedAt, loc),
			FormatTimelineTime(node.FinishedAt, loc),
		))
	}
	return strings.Join(lines, "\n"), true
}

// startedNodes returns the nodes with a start timestamp, ordered by string
// comparison of that timestamp. The input slice is not modified.
func startedNodes(nodes []*Node) []*Node {
	started := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		if node.HasStarted() {
			started = append(started, node)
		}
	}
	sort.SliceStable(started, func(i, j int) bool {
		return started[i].StartedAt < started[j].StartedAt
	})
	return started
}

// ValidateTimeline reports timestamps whose string order would not match
// their chronological order, and timestamps that cannot be parsed. The
// result is informational; BuildTimeline never rejects a status.
func ValidateTimeline(status *Status) []string {
	if status == nil {
		return nil
	}
	var problems []string
	var prev time.Time
	var prevNode *Node
	for _, node := range startedNodes(status.Nodes) {
		start, ok := parseISOTime(node.StartedAt, time.UTC)
		if !ok {
			problems = append(problems, fmt.Sprintf("step %q: start %q is not a recognized timestamp", node.Name(), node.StartedAt))
			continue
		}
		if _, ok := parseISOTime(node.FinishedAt, time.UTC); !ok {
			problems = append(problems, fmt.Sprintf("step %q: finish %q is not a recognized timestamp", node.Name(), node.FinishedAt))
		}
		if prevNode != nil && start.Before(prev) {
			problems = append(problems, fmt.Sprintf("step %q: start %q sorts after %q but is earlier; timestamps are not in a fixed-width layout",
				node.Name(), node.StartedAt, prevNode.StartedAt))
		}
		prev, prevNode = start, node
	}
	return problems
}

// TimelineBuilder memoizes BuildTimeline on the identity of the Status
// pointer. Callers must replace the Status value rather than mutate it in
// place for a new timeline to be built.
type TimelineBuilder struct {
	location *time.Location

	mutex  sync.Mutex
	last   *Status
	graph  string
	ok     bool
	builds int
}

// NewTimelineBuilder returns a builder formatting timestamps in loc. A nil
// loc means time.Local.
func NewTimelineBuilder(loc *time.Location) *TimelineBuilder {
	if loc == nil {
		loc = time.Local
	}
	return &TimelineBuilder{location: loc}
}

// Build returns the timeline for status, recomputing only when status is a
// different pointer than the previous call.
func (b *TimelineBuilder) Build(status *Status) (string, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.builds > 0 && status == b.last {
		return b.graph, b.ok
	}
	b.graph, b.ok = BuildTimelineIn(status, b.location)
	b.last = status
	b.builds++
	return b.graph, b.ok
}

// Builds returns how many times the description was recomputed.
func (b *TimelineBuilder) Builds() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.builds
}
