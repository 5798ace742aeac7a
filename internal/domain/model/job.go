package model

import "time"

type JobStatus string

const (
	JobStatusRunning     JobStatus = "running"
	JobStatusWaitingUser JobStatus = "waiting_user"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusError       JobStatus = "error"
)

// PromptField is one input the user is asked to fill when a job needs input.
type PromptField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Value    string   `json:"value"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// UserPrompt is the structured question a waiting_user job carries.
type UserPrompt struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Fields      []PromptField `json:"fields"`
}

// Job is a read-only snapshot of a server-side unit of AI work tied to a
// session. The client observes jobs through polling and never mutates them.
type Job struct {
	ID            string      `json:"id"`
	SessionID     string      `json:"session_id"`
	Status        JobStatus   `json:"status"`
	Type          string      `json:"type"`
	CurrentMsg    string      `json:"current_msg"`
	NeedUserInput *UserPrompt `json:"need_user_input,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	FinishedAt    *time.Time  `json:"finished_at,omitempty"`
}

// Active reports whether the job still occupies the session's active set.
func (j *Job) Active() bool {
	return j.Status == JobStatusRunning || j.Status == JobStatusWaitingUser
}
