package move

import (
	"strings"
	"testing"

	"github.com/vietddude/chainsink/internal/core/domain"
)

func TestCleanPayload(t *testing.T) {
	payload := &domain.TransactionPayload{
		Type:            domain.PayloadTypeEntryFunction,
		EntryFunctionID: "0x1::coin::transfer",
		TypeArguments:   []string{"0x1::aptos_coin::AptosCoin"},
		Arguments:       []string{`"0xb"`, `"100"`, `{"inner":"0xc"}`},
	}

	clean, err := CleanPayload(payload, 7)
	if err != nil {
		t.Fatalf("CleanPayload failed: %v", err)
	}

	args := clean["arguments"].([]any)
	if args[0] != "0xb" || args[1] != "100" {
		t.Errorf("Expected unescaped scalar arguments, got %v", args)
	}
	nested, ok := args[2].(map[string]any)
	if !ok || nested["inner"] != "0xc" {
		t.Errorf("Expected nested object argument, got %v", args[2])
	}
	if clean["function"] != "0x1::coin::transfer" {
		t.Errorf("Unexpected function: %v", clean["function"])
	}
}

func TestCleanPayload_StripsNullBytes(t *testing.T) {
	payload := &domain.TransactionPayload{
		Type:      domain.PayloadTypeEntryFunction,
		Arguments: []string{`"na\u0000me"`},
	}

	clean, err := CleanPayload(payload, 7)
	if err != nil {
		t.Fatalf("CleanPayload failed: %v", err)
	}
	if got := clean["arguments"].([]any)[0]; got != "name" {
		t.Errorf("Expected null byte stripped, got %q", got)
	}
}

func TestCleanPayload_Nil(t *testing.T) {
	if _, err := CleanPayload(nil, 7); err == nil {
		t.Error("Expected error for missing payload")
	}
}

func TestRemoveNullBytes(t *testing.T) {
	in := map[string]any{
		"a": "x\x00y",
		"b": []any{"p\x00", map[string]any{"c": `q\u0000`}},
	}
	out := RemoveNullBytes(in).(map[string]any)
	if out["a"] != "xy" {
		t.Errorf("Expected stripped string, got %q", out["a"])
	}
	list := out["b"].([]any)
	if list[0] != "p" {
		t.Errorf("Expected stripped list element, got %q", list[0])
	}
	if list[1].(map[string]any)["c"] != "q" {
		t.Errorf("Expected stripped escaped sequence, got %q", list[1].(map[string]any)["c"])
	}
}

func TestEntryFunctionID(t *testing.T) {
	long := "0x1::m::" + strings.Repeat("f", 2000)
	req := &domain.UserRequest{Payload: &domain.TransactionPayload{
		Type:            domain.PayloadTypeEntryFunction,
		EntryFunctionID: long,
	}}
	if got := EntryFunctionID(req); len(got) != MaxEntryFunctionLength {
		t.Errorf("Expected id bounded to %d chars, got %d", MaxEntryFunctionLength, len(got))
	}

	script := &domain.UserRequest{Payload: &domain.TransactionPayload{
		Type: domain.PayloadTypeScript,
	}}
	if got := EntryFunctionID(script); got != "" {
		t.Errorf("Script payloads have no entry function, got %q", got)
	}
	if got := EntryFunctionID(nil); got != "" {
		t.Errorf("Nil request has no entry function, got %q", got)
	}
}
