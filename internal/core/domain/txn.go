package domain

import (
	"fmt"
	"time"
)

// TxnType discriminates the payload family of a transaction record.
type TxnType string

const (
	TxnTypeUser            TxnType = "user"
	TxnTypeGenesis         TxnType = "genesis"
	TxnTypeBlockMetadata   TxnType = "block_metadata"
	TxnTypeStateCheckpoint TxnType = "state_checkpoint"
	// TxnTypeUnknown marks records whose data section was absent upstream.
	TxnTypeUnknown TxnType = ""
)

// Transaction is one on-chain transaction record as delivered by the
// ingestion layer. Records arrive in contiguous ascending-version order
// and are consumed read-only.
type Transaction struct {
	Version     uint64           `json:"version"`
	BlockHeight uint64           `json:"block_height"`
	Epoch       uint64           `json:"epoch"`
	Timestamp   time.Time        `json:"timestamp"`
	Type        TxnType          `json:"type"`
	Info        *TransactionInfo `json:"info"`
	User        *UserRequest     `json:"user,omitempty"`
	Events      []Event          `json:"events"`
}

// TransactionInfo carries execution results and the ordered write set.
type TransactionInfo struct {
	Success bool             `json:"success"`
	GasUsed uint64           `json:"gas_used"`
	Changes []WriteSetChange `json:"changes"`
}

// UserRequest is the signed request portion of a user transaction.
type UserRequest struct {
	Sender          string              `json:"sender"`
	SequenceNumber  uint64              `json:"sequence_number"`
	GasUnitPrice    uint64              `json:"gas_unit_price"`
	MaxGasAmount    uint64              `json:"max_gas_amount"`
	Payload         *TransactionPayload `json:"payload,omitempty"`
	FeePayerAddress string              `json:"fee_payer_address,omitempty"`
}

// PayloadType discriminates the user transaction payload encoding.
type PayloadType string

const (
	PayloadTypeEntryFunction PayloadType = "entry_function_payload"
	PayloadTypeScript        PayloadType = "script_payload"
	PayloadTypeMultisig      PayloadType = "multisig_payload"
)

// TransactionPayload is the declared call of a user transaction. Arguments
// arrive as escaped JSON strings and must be cleaned before structured use.
type TransactionPayload struct {
	Type            PayloadType `json:"type"`
	EntryFunctionID string      `json:"entry_function_id_str,omitempty"`
	TypeArguments   []string    `json:"type_arguments,omitempty"`
	Arguments       []string    `json:"arguments,omitempty"`
	MultisigAddress string      `json:"multisig_address,omitempty"`
}

// MustInfo returns the transaction info block. Its presence is guaranteed
// by the ingestion contract; absence is a contract breach that halts the
// worker rather than corrupting downstream state.
func (t *Transaction) MustInfo() *TransactionInfo {
	if t.Info == nil {
		panic(fmt.Sprintf("transaction info doesn't exist, version %d", t.Version))
	}
	return t.Info
}

// MustUser returns the signed request of a user transaction under the
// same contract.
func (t *Transaction) MustUser() *UserRequest {
	if t.User == nil {
		panic(fmt.Sprintf("user transaction request doesn't exist, version %d", t.Version))
	}
	return t.User
}

// MustTimestamp returns the transaction timestamp under the same contract.
func (t *Transaction) MustTimestamp() time.Time {
	if t.Timestamp.IsZero() {
		panic(fmt.Sprintf("transaction timestamp doesn't exist, version %d", t.Version))
	}
	return t.Timestamp
}
