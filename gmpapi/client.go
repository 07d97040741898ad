// Package gmpapi is the typed client for the external GMP coordinator's
// HTTP API. Only its interface is in scope; production
// wiring provides a concrete implementation behind it.
package gmpapi

import "context"

// Event is one semantic event produced by the trace parser.
// Fields beyond Type/TraceID/MessageID are carried as a raw payload so this
// package need not mirror every event schema's Go struct.
type Event struct {
	Type      string         `json:"type"`
	TraceID   string         `json:"trace_id,omitempty"`
	MessageID string         `json:"message_id,omitempty"`
	Payload   map[string]any `json:"payload"`
}

// TaskKind enumerates the egress task types the Broadcast Pipeline handles.
type TaskKind string

const (
	TaskApprove TaskKind = "APPROVE"
	TaskExecute TaskKind = "EXECUTE"
	TaskRefund  TaskKind = "REFUND"
)

// Task is one unit of egress work delivered by GetTasks.
type Task struct {
	ID              string   `json:"id"`
	Kind            TaskKind `json:"kind"`
	TxBlobHex       string   `json:"tx_blob_hex,omitempty"`
	Payload         string   `json:"payload,omitempty"` // base64
	AvailableGas    string   `json:"available_gas,omitempty"`
	MessageID       string   `json:"message_id,omitempty"`
	SourceChain     string   `json:"source_chain,omitempty"`
	SourceAddress   string   `json:"source_address,omitempty"`
	DestinationAddr string   `json:"destination_address,omitempty"`
	TokenID         string   `json:"token_id,omitempty"`
}

// TaskResultStatus reports the outcome of handling a Task.
type TaskResultStatus string

const (
	StatusSuccess TaskResultStatus = "SUCCESS"
	StatusError   TaskResultStatus = "ERROR"
)

// TaskResult is returned by every broadcast task handler.
type TaskResult struct {
	TxHash      string
	MessageID   string
	SourceChain string
	Status      TaskResultStatus
	Err         error
}

// Client is the GMP-API surface the adapter depends on.
type Client interface {
	PublishEvents(ctx context.Context, events []Event) error
	GetTasks(ctx context.Context) ([]Task, error)
	PostProof(ctx context.Context, taskID string, proof []byte) error
}
