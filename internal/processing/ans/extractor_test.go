package ans

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing/metrics"
)

const (
	testNameRecordsHandle  = "0x1b6"
	testPrimaryNamesHandle = "0x1c7"
	testContract           = "0x867"
)

func testConfig() Config {
	return Config{
		V1PrimaryNamesTableHandle: testPrimaryNamesHandle,
		V1NameRecordsTableHandle:  testNameRecordsHandle,
		V2ContractAddress:         testContract,
	}.standardized()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func userTxn(version uint64) *domain.Transaction {
	return &domain.Transaction{
		Version:   version,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Type:      domain.TxnTypeUser,
		Info:      &domain.TransactionInfo{Success: true},
		User:      &domain.UserRequest{Sender: "0xa"},
	}
}

func nameRecordWrite(domainName, subdomain, target string, expirationSec int64) domain.WriteSetChange {
	key := map[string]any{
		"domain_name":    domainName,
		"subdomain_name": map[string]any{"vec": []string{}},
	}
	if subdomain != "" {
		key["subdomain_name"] = map[string]any{"vec": []string{subdomain}}
	}
	value := map[string]any{
		"expiration_time_sec": expirationSec,
		"target_address":      map[string]any{"vec": []string{}},
	}
	if target != "" {
		value["target_address"] = map[string]any{"vec": []string{target}}
	}
	rawKey, _ := json.Marshal(key)
	rawValue, _ := json.Marshal(value)
	return domain.WriteSetChange{
		Type: domain.ChangeTypeWriteTableItem,
		WriteTableItem: &domain.WriteTableItem{
			Handle: testNameRecordsHandle,
			Key:    string(rawKey),
			Value:  string(rawValue),
		},
	}
}

func TestFromTransaction_V1NameRecordWrite(t *testing.T) {
	txn := userTxn(5)
	txn.Info.Changes = []domain.WriteSetChange{
		nameRecordWrite("hello", "world", "0xb", 1700000000),
	}

	out := FromTransaction(txn, testConfig(), testLogger())
	if len(out.CurrentLookups) != 1 || len(out.Lookups) != 1 {
		t.Fatalf("expected one lookup pair, got %d/%d", len(out.CurrentLookups), len(out.Lookups))
	}

	current := out.CurrentLookups[0]
	if current.Domain != "hello" || current.Subdomain != "world" {
		t.Errorf("unexpected name: %s/%s", current.Domain, current.Subdomain)
	}
	if current.TokenName != "world.hello.apt" {
		t.Errorf("unexpected token name: %s", current.TokenName)
	}
	if current.RegisteredAddress == nil ||
		*current.RegisteredAddress != "0x000000000000000000000000000000000000000000000000000000000000000b" {
		t.Errorf("expected padded target address, got %v", current.RegisteredAddress)
	}
	if current.ExpirationTimestamp.Unix() != 1700000000 {
		t.Errorf("unexpected expiration: %v", current.ExpirationTimestamp)
	}
	if current.IsDeleted {
		t.Error("write must not be deleted")
	}

	// Every v1 row is also projected into the unified tables.
	if len(out.CurrentLookupsV2) != 1 || len(out.LookupsV2) != 1 {
		t.Fatalf("expected v2 projection, got %d/%d", len(out.CurrentLookupsV2), len(out.LookupsV2))
	}
	if out.CurrentLookupsV2[0].TokenStandard != TokenStandardV1 {
		t.Errorf("expected v1 standard marker, got %s", out.CurrentLookupsV2[0].TokenStandard)
	}
}

func TestFromTransaction_V1NameRecordDelete(t *testing.T) {
	key, _ := json.Marshal(map[string]any{
		"domain_name":    "hello",
		"subdomain_name": map[string]any{"vec": []string{}},
	})
	txn := userTxn(9)
	txn.Info.Changes = []domain.WriteSetChange{{
		Type: domain.ChangeTypeDeleteTableItem,
		DeleteTableItem: &domain.DeleteTableItem{
			Handle: testNameRecordsHandle,
			Key:    string(key),
		},
	}}

	out := FromTransaction(txn, testConfig(), testLogger())
	if len(out.CurrentLookups) != 1 {
		t.Fatalf("expected one tombstone, got %d", len(out.CurrentLookups))
	}
	current := out.CurrentLookups[0]
	if !current.IsDeleted {
		t.Error("expected deleted marker")
	}
	if current.RegisteredAddress != nil {
		t.Errorf("expected no registered address, got %v", *current.RegisteredAddress)
	}
	if current.LastTransactionVersion != 9 {
		t.Errorf("expected version 9, got %d", current.LastTransactionVersion)
	}
	if current.TokenName != "hello.apt" {
		t.Errorf("unexpected token name: %s", current.TokenName)
	}
}

func TestFromTransaction_V1PrimaryName(t *testing.T) {
	key, _ := json.Marshal("0xa")
	value, _ := json.Marshal(map[string]any{
		"domain_name":    "hello",
		"subdomain_name": map[string]any{"vec": []string{}},
	})
	txn := userTxn(5)
	txn.Info.Changes = []domain.WriteSetChange{{
		Type: domain.ChangeTypeWriteTableItem,
		WriteTableItem: &domain.WriteTableItem{
			Handle: testPrimaryNamesHandle,
			Key:    string(key),
			Value:  string(value),
		},
	}}

	out := FromTransaction(txn, testConfig(), testLogger())
	if len(out.CurrentPrimaryNames) != 1 {
		t.Fatalf("expected one primary name, got %d", len(out.CurrentPrimaryNames))
	}
	current := out.CurrentPrimaryNames[0]
	if current.Domain == nil || *current.Domain != "hello" {
		t.Errorf("unexpected domain: %v", current.Domain)
	}
	if current.TokenName == nil || *current.TokenName != "hello.apt" {
		t.Errorf("unexpected token name: %v", current.TokenName)
	}
	if len(out.CurrentPrimaryNamesV2) != 1 || out.CurrentPrimaryNamesV2[0].TokenStandard != TokenStandardV1 {
		t.Fatalf("expected v1-projected primary name, got %+v", out.CurrentPrimaryNamesV2)
	}
}

func TestFromTransaction_V2NameRecordWithSubdomainExt(t *testing.T) {
	record, _ := json.Marshal(map[string]any{
		"domain_name":         "hello",
		"expiration_time_sec": "1700000000",
		"target_address":      map[string]any{"vec": []string{"0xb"}},
	})
	ext, _ := json.Marshal(map[string]any{
		"subdomain_name":              "world",
		"subdomain_expiration_policy": "1",
	})
	objectAddr := "0x99"
	cfg := testConfig()
	txn := userTxn(12)
	txn.Info.Changes = []domain.WriteSetChange{
		// SubdomainExt lands after the record; the extractor joins both.
		{
			Type: domain.ChangeTypeWriteResource,
			WriteResource: &domain.WriteResource{
				Address: objectAddr,
				TypeStr: cfg.nameRecordType(),
				Data:    record,
			},
		},
		{
			Type: domain.ChangeTypeWriteResource,
			WriteResource: &domain.WriteResource{
				Address: objectAddr,
				TypeStr: cfg.subdomainExtType(),
				Data:    ext,
			},
		},
	}

	out := FromTransaction(txn, cfg, testLogger())
	if len(out.CurrentLookupsV2) != 1 {
		t.Fatalf("expected one v2 lookup, got %d", len(out.CurrentLookupsV2))
	}
	current := out.CurrentLookupsV2[0]
	if current.TokenStandard != TokenStandardV2 {
		t.Errorf("expected v2 standard, got %s", current.TokenStandard)
	}
	if current.Subdomain != "world" || current.TokenName != "world.hello.apt" {
		t.Errorf("expected subdomain joined from ext, got %s / %s", current.Subdomain, current.TokenName)
	}
	if current.SubdomainExpirationPolicy == nil || *current.SubdomainExpirationPolicy != 1 {
		t.Errorf("expected expiration policy 1, got %v", current.SubdomainExpirationPolicy)
	}
	if len(out.CurrentLookups) != 0 {
		t.Errorf("v2 records must not produce v1 rows, got %d", len(out.CurrentLookups))
	}
}

func TestFromTransaction_SetReverseLookupUnset(t *testing.T) {
	cfg := testConfig()
	data, _ := json.Marshal(map[string]any{
		"account_addr":        "0xa",
		"curr_domain_name":    map[string]any{"vec": []string{}},
		"curr_subdomain_name": map[string]any{"vec": []string{}},
	})
	txn := userTxn(15)
	txn.Events = []domain.Event{{
		Type: cfg.setReverseLookupEventType(),
		Data: data,
	}}

	out := FromTransaction(txn, cfg, testLogger())
	if len(out.CurrentPrimaryNamesV2) != 1 {
		t.Fatalf("expected one v2 primary name, got %d", len(out.CurrentPrimaryNamesV2))
	}
	current := out.CurrentPrimaryNamesV2[0]
	if !current.IsDeleted {
		t.Error("unset reverse lookup must mark deleted")
	}
	if current.Domain != nil {
		t.Errorf("expected nil domain, got %v", *current.Domain)
	}
}

func TestFromTransaction_ForeignHandleIgnored(t *testing.T) {
	txn := userTxn(5)
	change := nameRecordWrite("hello", "", "0xb", 1700000000)
	change.WriteTableItem.Handle = "0xdead"
	txn.Info.Changes = []domain.WriteSetChange{change}

	out := FromTransaction(txn, testConfig(), testLogger())
	if len(out.CurrentLookups) != 0 || len(out.CurrentLookupsV2) != 0 {
		t.Errorf("expected nothing from foreign handle, got %+v", out)
	}
}

type mockAnsStore struct {
	rows Extracted
}

func (m *mockAnsStore) PersistBatch(ctx context.Context, rows Extracted) error {
	m.rows = rows
	return nil
}

func TestBatchProcessor_LastWriteWinsAcrossTransactions(t *testing.T) {
	first := userTxn(5)
	first.Info.Changes = []domain.WriteSetChange{
		nameRecordWrite("hello", "", "0xb", 1700000000),
	}
	second := userTxn(7)
	second.Info.Changes = []domain.WriteSetChange{
		nameRecordWrite("hello", "", "0xc", 1800000000),
	}

	store := &mockAnsStore{}
	p := NewBatchProcessor(store, testConfig(), metrics.NewNop(), testLogger())

	_, err := p.ProcessBatch(context.Background(), []*domain.Transaction{first, second}, 5, 7)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if len(store.rows.CurrentLookups) != 1 {
		t.Fatalf("expected one reconciled lookup, got %d", len(store.rows.CurrentLookups))
	}
	current := store.rows.CurrentLookups[0]
	if current.LastTransactionVersion != 7 {
		t.Errorf("expected winning version 7, got %d", current.LastTransactionVersion)
	}
	if current.RegisteredAddress == nil ||
		*current.RegisteredAddress != "0x000000000000000000000000000000000000000000000000000000000000000c" {
		t.Errorf("expected winning target 0xc, got %v", current.RegisteredAddress)
	}

	// History keeps both observations.
	if len(store.rows.Lookups) != 2 {
		t.Errorf("expected two history rows, got %d", len(store.rows.Lookups))
	}
}

func TestFromTransaction_MalformedNameRecordDroppedNotFatal(t *testing.T) {
	bad := nameRecordWrite("broken", "", "0xb", 1700000000)
	bad.WriteTableItem.Value = `{"expiration_time_sec": [`
	txn := userTxn(5)
	txn.Info.Changes = []domain.WriteSetChange{
		bad,
		nameRecordWrite("hello", "", "0xb", 1700000000),
	}

	out := FromTransaction(txn, testConfig(), testLogger())
	if len(out.CurrentLookups) != 1 || len(out.Lookups) != 1 {
		t.Fatalf("expected only the well-formed record, got %d/%d",
			len(out.CurrentLookups), len(out.Lookups))
	}
	if out.CurrentLookups[0].Domain != "hello" {
		t.Errorf("unexpected surviving record: %s", out.CurrentLookups[0].Domain)
	}
}
