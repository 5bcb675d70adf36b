package statusview

import (
	"fmt"
	"strings"
)

// WorkflowTab identifies the view selected on a workflow page.
type WorkflowTab int

const (
	WorkflowTabStatus WorkflowTab = iota
	WorkflowTabConfig
	WorkflowTabHistory
	WorkflowTabStepLog
	WorkflowTabSchedulerLog
)

var workflowTabNames = []string{"status", "config", "history", "step-log", "scheduler-log"}

func (t WorkflowTab) String() string {
	if t < 0 || int(t) >= len(workflowTabNames) {
		return fmt.Sprintf("tab(%d)", int(t))
	}
	return workflowTabNames[t]
}

// ParseWorkflowTab parses a tab name as produced by WorkflowTab.String.
func ParseWorkflowTab(value string) (WorkflowTab, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for i, name := range workflowTabNames {
		if name == value {
			return WorkflowTab(i), nil
		}
	}
	return WorkflowTabStatus, fmt.Errorf("unknown workflow tab %q", value)
}

// WorkflowStatus is the stored state of one workflow as served to views.
type WorkflowStatus struct {
	Name      string  `json:"Name"`
	File      string  `json:"File,omitempty"`
	Status    *Status `json:"Status"`
	Suspended bool    `json:"Suspended"`
	Error     string  `json:"Error,omitempty"`
}

// GetWorkflowResponse is the data fetched for a workflow page.
type GetWorkflowResponse struct {
	Title      string          `json:"Title"`
	Workflow   *WorkflowStatus `json:"Workflow"`
	Definition string          `json:"Definition,omitempty"`
	Errors     []string        `json:"Errors"`
}

// WorkflowContext is the state shared by the views of one workflow page.
type WorkflowContext struct {
	Refresh func()
	Data    *GetWorkflowResponse
	Name    string
	Tab     WorkflowTab
	Group   string
}

// DefaultWorkflowContext returns the context views see before any data has
// been fetched.
func DefaultWorkflowContext() WorkflowContext {
	return WorkflowContext{
		Refresh: func() {},
		Tab:     WorkflowTabStatus,
	}
}

// Status returns the status carried by the fetched data, if any.
func (c WorkflowContext) Status() *Status {
	if c.Data == nil || c.Data.Workflow == nil {
		return nil
	}
	return c.Data.Workflow.Status
}
