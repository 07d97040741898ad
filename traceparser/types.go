// Package traceparser implements C7: turning a raw transaction trace into
// a deduplicated, ordered list of semantic events, with gas-cost
// attribution and gas-credit/call-contract pairing.
package traceparser

import "math/big"

// EventKind enumerates every semantic event the parser can emit.
type EventKind string

const (
	EventCannotExecuteMessageV2                   EventKind = "CANNOT_EXECUTE_MESSAGE_V2"
	EventMessageApproved                          EventKind = "MESSAGE_APPROVED"
	EventMessageExecuted                          EventKind = "MESSAGE_EXECUTED"
	EventCall                                     EventKind = "CALL"
	EventGasCredit                                EventKind = "GAS_CREDIT"
	EventGasRefunded                               EventKind = "GAS_REFUNDED"
	EventSignersRotated                           EventKind = "SIGNERS_ROTATED"
	EventITSInterchainTokenDeploymentStarted      EventKind = "ITS/INTERCHAIN_TOKEN_DEPLOYMENT_STARTED"
	EventITSInterchainTransfer                    EventKind = "ITS/INTERCHAIN_TRANSFER"
	EventITSLinkTokenStarted                      EventKind = "ITS/LINK_TOKEN_STARTED"
	EventITSTokenMetadataRegistered               EventKind = "ITS/TOKEN_METADATA_REGISTERED"
)

// Reason is the CannotExecuteMessageV2 failure reason.
type Reason string

const ReasonInsufficientGas Reason = "InsufficientGas"

// MessageMatchingKey pairs a gas-credit transaction with its call-contract
// transaction within the same trace.
type MessageMatchingKey struct {
	DestinationChain   string
	DestinationAddress string
	PayloadHash        [32]byte
}

// Event is one semantic event the pipeline produces. Not every field is
// populated for every Kind; see the parser inventory for which fields each
// parser fills in.
type Event struct {
	Kind                EventKind
	TraceID             string
	MessageID           string
	SourceChain         string
	SourceAddress       string
	DestinationChain    string
	DestinationAddress  string
	Payload             []byte
	PayloadHash         [32]byte
	Cost                *big.Int
	PaymentAmount       *big.Int
	TokenID             string // jetton minter address; cleared after price conversion
	Reason              Reason
	Details             string
	Epoch               uint64
	SignersHash         string

	pairKey   MessageMatchingKey
	hasPairKey bool
}
