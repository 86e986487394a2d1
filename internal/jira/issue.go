package jira

import (
	"time"
)

// UnassignedName is the bucket used for issues without an assignee.
const UnassignedName = "Unassigned"

// Issue is the canonical work item produced from one row of a Jira CSV export.
// It is treated as immutable once normalized.
type Issue struct {
	Key         string     `json:"key"`
	Summary     string     `json:"summary"`
	Status      string     `json:"status"`
	Created     time.Time  `json:"created"`
	Updated     *time.Time `json:"updated,omitempty"`
	Resolved    *time.Time `json:"resolved,omitempty"`
	StoryPoints float64    `json:"storyPoints"`
	Assignee    string     `json:"assignee,omitempty"`
	Epic        string     `json:"epic,omitempty"`
	Description string     `json:"description,omitempty"`
}

// IsDone reports whether the issue counts as completed for metric purposes.
func (i Issue) IsDone() bool {
	return i.Resolved != nil
}

// AssigneeName returns the assignee, falling back to UnassignedName.
func (i Issue) AssigneeName() string {
	if i.Assignee == "" {
		return UnassignedName
	}
	return i.Assignee
}

// ProjectKey extracts the project portion of the key (e.g., "PROJ" from "PROJ-123").
func (i Issue) ProjectKey() string {
	for idx := 0; idx < len(i.Key); idx++ {
		if i.Key[idx] == '-' {
			return i.Key[:idx]
		}
	}
	return i.Key
}

// Day truncates a timestamp to its UTC calendar day in ISO form.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
