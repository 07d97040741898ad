// Package chain defines the shared trace/transaction/message shapes the RPC
// client, trace store and trace parser all operate on.
package chain

// Message is one outgoing or incoming message attached to a Transaction.
// Destination is nil for "log" messages emitted to nowhere: those outgoing
// messages have no destination at all.
type Message struct {
	Opcode      *uint32
	Source      *string
	Destination *string
	FwdFee      string
	Value       string
	Body        string // base64 BoC
}

// HasOpcode reports whether the message carries the given opcode.
func (m Message) HasOpcode(op uint32) bool {
	return m.Opcode != nil && *m.Opcode == op
}

// IsLog reports whether this message has no destination, i.e. it is an
// event emission rather than a value/call transfer.
func (m Message) IsLog() bool {
	return m.Destination == nil
}

// ComputePhase is the relevant subset of a transaction's compute phase.
type ComputePhase struct {
	ExitCode int
}

// ActionPhase is the relevant subset of a transaction's action phase.
type ActionPhase struct {
	ResultCode int
}

// Description carries the phases the parser gates on.
type Description struct {
	ComputePhase ComputePhase
	Action       ActionPhase
}

// Transaction is one node of a Trace's transaction DAG.
type Transaction struct {
	Account     string
	Hash        string
	TotalFees   string
	Description Description
	InMessage   *Message
	OutMessages []Message
}

// Trace is a DAG of transactions linked by internal messages, as returned
// by the RPC indexer's /api/v3/traces endpoint.
type Trace struct {
	TraceID      string
	IsIncomplete bool
	StartLT      string
	EndLT        string
	Transactions []Transaction
}
