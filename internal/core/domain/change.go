package domain

import "encoding/json"

// ChangeType discriminates write-set change variants. The enumeration is
// closed: anything else is skipped by every extractor.
type ChangeType string

const (
	ChangeTypeWriteResource   ChangeType = "write_resource"
	ChangeTypeDeleteResource  ChangeType = "delete_resource"
	ChangeTypeWriteModule     ChangeType = "write_module"
	ChangeTypeDeleteModule    ChangeType = "delete_module"
	ChangeTypeWriteTableItem  ChangeType = "write_table_item"
	ChangeTypeDeleteTableItem ChangeType = "delete_table_item"
)

// WriteSetChange is one entry of a transaction's ordered write set. Exactly
// one of the detail pointers matching Type is set.
type WriteSetChange struct {
	Type            ChangeType       `json:"type"`
	WriteResource   *WriteResource   `json:"write_resource,omitempty"`
	DeleteResource  *DeleteResource  `json:"delete_resource,omitempty"`
	WriteModule     *ModuleChange    `json:"write_module,omitempty"`
	DeleteModule    *ModuleChange    `json:"delete_module,omitempty"`
	WriteTableItem  *WriteTableItem  `json:"write_table_item,omitempty"`
	DeleteTableItem *DeleteTableItem `json:"delete_table_item,omitempty"`
}

// WriteResource is a resource written under an account address.
type WriteResource struct {
	Address      string          `json:"address"`
	StateKeyHash []byte          `json:"state_key_hash"`
	TypeStr      string          `json:"type_str"`
	Data         json.RawMessage `json:"data"`
}

// DeleteResource is a resource removed from an account address.
type DeleteResource struct {
	Address      string `json:"address"`
	StateKeyHash []byte `json:"state_key_hash"`
	TypeStr      string `json:"type_str"`
}

// ModuleChange covers module publishes and removals. Module internals are
// irrelevant to extraction; only identity is kept.
type ModuleChange struct {
	Address      string `json:"address"`
	StateKeyHash []byte `json:"state_key_hash"`
	Name         string `json:"name"`
}

// WriteTableItem is a table cell write. Key and Value are JSON strings whose
// schema is declared by KeyType/ValueType (legacy table-item encoding).
type WriteTableItem struct {
	Handle       string `json:"handle"`
	StateKeyHash []byte `json:"state_key_hash"`
	Key          string `json:"key"`
	KeyType      string `json:"key_type"`
	Value        string `json:"value"`
	ValueType    string `json:"value_type"`
}

// DeleteTableItem is a table cell removal. Only the key side survives.
type DeleteTableItem struct {
	Handle       string `json:"handle"`
	StateKeyHash []byte `json:"state_key_hash"`
	Key          string `json:"key"`
	KeyType      string `json:"key_type"`
}
