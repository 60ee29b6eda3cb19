package server

import (
	"github.com/leapstack-labs/askql/pkg/core"
)

// QuestionRequest is the body of /api/ask and /api/sql.
type QuestionRequest struct {
	Question string `json:"question"`
}

// AskResponse is the body returned by /api/ask.
type AskResponse struct {
	RequestID string     `json:"request_id"`
	Answer    string     `json:"answer"`
	SQL       string     `json:"sql,omitempty"`
	Outcome   string     `json:"outcome,omitempty"`
	Columns   []string   `json:"columns"`
	Rows      []core.Row `json:"rows"`
	Error     string     `json:"error,omitempty"`
}

// SQLResponse is the body returned by /api/sql.
type SQLResponse struct {
	RequestID  string               `json:"request_id"`
	SQL        string               `json:"sql"`
	Components core.QueryComponents `json:"components"`
	Error      string               `json:"error,omitempty"`
}

// ErrorResponse is the body of every 4xx/5xx response without a richer shape.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
