// Package boc implements the opcode-tagged message schemas exchanged with
// the gateway, gas-service and interchain-token-service contracts: parsing
// (decode body -> typed struct) for ingress messages and encoding (typed
// struct -> cell) for egress messages, built on package cell.
package boc

// Opcodes identifying each recognized message body. OpRelayerExecute
// (0x00000008) and OpGatewayExecute (0x0000000d) are pinned by the
// reference implementation (relayer_execute_message.rs's to_cell and
// ingestor.rs's body_if_approved respectively); the remaining values are
// this adapter's own internal assignment, since the contract's constants
// file was not present in the retrieved sources.
const (
	OpApproveMessages                     uint32 = 0x00000001
	OpMessageApproved                     uint32 = 0x00000002
	OpCallContract                        uint32 = 0x00000003
	OpNullifiedSuccessfully                uint32 = 0x00000004
	OpGatewayExecute                       uint32 = 0x0000000d
	OpRelayerExecute                       uint32 = 0x00000008
	OpNativeRefund                         uint32 = 0x00000009
	OpPayNativeGasForContractCall          uint32 = 0x0000000a
	OpPayGas                               uint32 = 0x0000000b
	OpAddNativeGas                         uint32 = 0x0000000c
	OpUserBalanceSubtracted                uint32 = 0x0000000e
	OpInterchainTokenDeploymentStartedLog  uint32 = 0x0000000f
	OpInterchainTransferLog                uint32 = 0x00000010
	OpLinkTokenStartedLog                  uint32 = 0x00000011
	OpTokenMetadataRegisteredLog           uint32 = 0x00000012
	OpSignersRotatedLog                    uint32 = 0x00000013
)

// TonWorkchain is the workchain every known adapter counterparty address
// lives in (masterchain addresses are never produced by these contracts).
const TonWorkchain int8 = 0
