package coin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func userTxn(version uint64, gasUsed, gasUnitPrice uint64) *domain.Transaction {
	return &domain.Transaction{
		Version:     version,
		BlockHeight: 10,
		Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Type:        domain.TxnTypeUser,
		Info: &domain.TransactionInfo{
			Success: true,
			GasUsed: gasUsed,
		},
		User: &domain.UserRequest{
			Sender:         "0xa",
			SequenceNumber: 7,
			GasUnitPrice:   gasUnitPrice,
			MaxGasAmount:   2000,
		},
	}
}

// coinStoreChange builds a CoinStore<T> write whose deposit handle is
// registered under (guidAddr, creation 3) and withdraw under creation 4.
func coinStoreChange(owner, coinType, amount, guidAddr string) domain.WriteSetChange {
	data := map[string]any{
		"coin":   map[string]any{"value": amount},
		"frozen": false,
		"deposit_events": map[string]any{
			"guid": map[string]any{"id": map[string]any{
				"addr":         guidAddr,
				"creation_num": "3",
			}},
		},
		"withdraw_events": map[string]any{
			"guid": map[string]any{"id": map[string]any{
				"addr":         guidAddr,
				"creation_num": "4",
			}},
		},
	}
	raw, _ := json.Marshal(data)
	return domain.WriteSetChange{
		Type: domain.ChangeTypeWriteResource,
		WriteResource: &domain.WriteResource{
			Address: owner,
			TypeStr: "0x1::coin::CoinStore<" + coinType + ">",
			Data:    raw,
		},
	}
}

func TestFromTransaction_GasActivity(t *testing.T) {
	txn := userTxn(5, 100, 10)

	out := FromTransaction(txn, testLogger())
	if len(out.Activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(out.Activities))
	}

	gas := out.Activities[0]
	if !gas.IsGasFee {
		t.Error("expected gas fee activity")
	}
	if !gas.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected gas amount 1000, got %s", gas.Amount)
	}
	if !gas.StorageRefundAmount.Equal(decimal.Zero) {
		t.Errorf("expected zero storage refund, got %s", gas.StorageRefundAmount)
	}
	if gas.CoinType != AptosCoinType {
		t.Errorf("expected native coin type, got %s", gas.CoinType)
	}
	if gas.EventCreationNumber != BurnGasEventCreationNumber || gas.EventIndex != BurnGasEventIndex {
		t.Errorf("expected sentinel event coordinates, got creation=%d index=%d",
			gas.EventCreationNumber, gas.EventIndex)
	}
	if gas.OwnerAddress != "0x000000000000000000000000000000000000000000000000000000000000000a" {
		t.Errorf("expected padded sender as owner, got %s", gas.OwnerAddress)
	}
	if gas.GasFeePayerAddress != nil {
		t.Errorf("expected no fee payer, got %v", *gas.GasFeePayerAddress)
	}
}

func TestFromTransaction_GasActivityStorageRefund(t *testing.T) {
	txn := userTxn(5, 100, 10)
	txn.Events = []domain.Event{{
		Type: "0x1::transaction_fee::FeeStatement",
		Data: json.RawMessage(`{"storage_fee_refund_octas":"50"}`),
	}}

	out := FromTransaction(txn, testLogger())
	if !out.Activities[0].StorageRefundAmount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected refund 50, got %s", out.Activities[0].StorageRefundAmount)
	}
}

func TestFromTransaction_DepositResolvesCoinType(t *testing.T) {
	coinType := "0x1::aptos_coin::AptosCoin"
	txn := userTxn(5, 100, 10)
	txn.Info.Changes = []domain.WriteSetChange{
		coinStoreChange("0xa", coinType, "142", "0xa"),
	}
	txn.Events = []domain.Event{{
		Key:            domain.EventKey{AccountAddress: "0xa", CreationNumber: 3},
		SequenceNumber: 1,
		Type:           "0x1::coin::DepositEvent",
		Data:           json.RawMessage(`{"amount":"42"}`),
	}}

	out := FromTransaction(txn, testLogger())
	if len(out.Activities) != 2 {
		t.Fatalf("expected gas + deposit activities, got %d", len(out.Activities))
	}

	deposit := out.Activities[1]
	if deposit.CoinType != coinType {
		t.Errorf("expected coin type resolved to %s, got %s", coinType, deposit.CoinType)
	}
	if !deposit.Amount.Equal(decimal.NewFromInt(42)) {
		t.Errorf("expected amount 42, got %s", deposit.Amount)
	}
	if deposit.EventIndex != 0 {
		t.Errorf("expected event index 0, got %d", deposit.EventIndex)
	}

	if len(out.Balances) != 1 || !out.Balances[0].Amount.Equal(decimal.NewFromInt(142)) {
		t.Fatalf("expected one balance of 142, got %+v", out.Balances)
	}
	if len(out.CurrentBalances) != 1 {
		t.Fatalf("expected one current balance, got %d", len(out.CurrentBalances))
	}
}

func TestFromTransaction_UnknownGUIDUsesSentinelCoinType(t *testing.T) {
	txn := userTxn(5, 100, 10)
	txn.Events = []domain.Event{{
		Key:  domain.EventKey{AccountAddress: "0xb", CreationNumber: 99},
		Type: "0x1::coin::WithdrawEvent",
		Data: json.RawMessage(`{"amount":"7"}`),
	}}

	out := FromTransaction(txn, testLogger())
	if len(out.Activities) != 2 {
		t.Fatalf("expected gas + withdraw activities, got %d", len(out.Activities))
	}
	if out.Activities[1].CoinType != UnknownCoinType {
		t.Errorf("expected sentinel coin type, got %s", out.Activities[1].CoinType)
	}
}

func TestFromTransaction_DeleteStoreZeroesBalance(t *testing.T) {
	txn := userTxn(8, 1, 1)
	txn.Info.Changes = []domain.WriteSetChange{{
		Type: domain.ChangeTypeDeleteResource,
		DeleteResource: &domain.DeleteResource{
			Address: "0xa",
			TypeStr: "0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>",
		},
	}}

	out := FromTransaction(txn, testLogger())
	if len(out.CurrentBalances) != 1 {
		t.Fatalf("expected one current balance, got %d", len(out.CurrentBalances))
	}
	current := out.CurrentBalances[0]
	if !current.Amount.Equal(decimal.Zero) {
		t.Errorf("expected zero amount after delete, got %s", current.Amount)
	}
	if current.LastTransactionVersion != 8 {
		t.Errorf("expected version 8, got %d", current.LastTransactionVersion)
	}
}

func TestFromTransaction_CoinInfoSupply(t *testing.T) {
	data := `{
		"name": "Aptos Coin",
		"symbol": "APT",
		"decimals": 8,
		"supply": {"vec":[{"integer":{"vec":[{"value":"5000"}]}}]}
	}`
	txn := userTxn(3, 1, 1)
	txn.Info.Changes = []domain.WriteSetChange{{
		Type: domain.ChangeTypeWriteResource,
		WriteResource: &domain.WriteResource{
			Address: "0x1",
			TypeStr: "0x1::coin::CoinInfo<0x1::aptos_coin::AptosCoin>",
			Data:    json.RawMessage(data),
		},
	}}

	out := FromTransaction(txn, testLogger())
	if len(out.Infos) != 1 {
		t.Fatalf("expected one coin info, got %d", len(out.Infos))
	}
	info := out.Infos[0]
	if info.Supply == nil || !info.Supply.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("expected supply 5000, got %v", info.Supply)
	}
	if info.Symbol != "APT" || info.Decimals != 8 {
		t.Errorf("unexpected metadata: %+v", info)
	}
}

func TestFromTransaction_NonUserSkipped(t *testing.T) {
	txn := &domain.Transaction{
		Version: 1,
		Type:    domain.TxnTypeBlockMetadata,
		Info:    &domain.TransactionInfo{Success: true},
	}
	out := FromTransaction(txn, testLogger())
	if len(out.Activities) != 0 || len(out.Balances) != 0 {
		t.Errorf("expected nothing extracted, got %+v", out)
	}
}

func TestFromTransaction_GenesisSeedsBalancesAndInfo(t *testing.T) {
	coinType := "0x1::aptos_coin::AptosCoin"
	txn := &domain.Transaction{
		Version:   0,
		Timestamp: time.Date(2022, 10, 12, 0, 0, 0, 0, time.UTC),
		Type:      domain.TxnTypeGenesis,
		Info: &domain.TransactionInfo{
			Success: true,
			Changes: []domain.WriteSetChange{
				coinStoreChange("0xa", coinType, "1000", "0xa"),
				{
					Type: domain.ChangeTypeWriteResource,
					WriteResource: &domain.WriteResource{
						Address: "0x1",
						TypeStr: "0x1::coin::CoinInfo<" + coinType + ">",
						Data:    json.RawMessage(`{"name":"Aptos Coin","symbol":"APT","decimals":8}`),
					},
				},
			},
		},
	}
	txn.Events = []domain.Event{{
		Key:  domain.EventKey{AccountAddress: "0xa", CreationNumber: 3},
		Type: "0x1::coin::DepositEvent",
		Data: json.RawMessage(`{"amount":"1000"}`),
	}}

	out := FromTransaction(txn, testLogger())
	if len(out.Balances) != 1 || len(out.CurrentBalances) != 1 {
		t.Fatalf("expected genesis balances, got %d/%d", len(out.Balances), len(out.CurrentBalances))
	}
	if len(out.Infos) != 1 {
		t.Fatalf("expected native coin info, got %d", len(out.Infos))
	}
	if len(out.Activities) != 1 {
		t.Fatalf("expected deposit activity only, got %d", len(out.Activities))
	}
	deposit := out.Activities[0]
	if deposit.IsGasFee {
		t.Error("genesis must not synthesize a gas fee row")
	}
	if deposit.CoinType != coinType {
		t.Errorf("expected coin type resolved from genesis store, got %s", deposit.CoinType)
	}
}

func TestFromTransaction_MalformedEventDroppedNotFatal(t *testing.T) {
	txn := userTxn(6, 100, 10)
	txn.Events = []domain.Event{
		{
			Key:  domain.EventKey{AccountAddress: "0xb", CreationNumber: 2},
			Type: "0x1::coin::DepositEvent",
			Data: json.RawMessage(`{"amount":{"not":"a number"}}`),
		},
		{
			Key:  domain.EventKey{AccountAddress: "0xb", CreationNumber: 2},
			Type: "0x1::coin::WithdrawEvent",
			Data: json.RawMessage(`{"amount":"7"}`),
		},
	}

	out := FromTransaction(txn, testLogger())
	if len(out.Activities) != 2 {
		t.Fatalf("expected gas + surviving withdraw, got %d", len(out.Activities))
	}
	if out.Activities[0].IsGasFee != true {
		t.Error("expected gas row first")
	}
	if !out.Activities[1].Amount.Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected surviving withdraw amount 7, got %s", out.Activities[1].Amount)
	}
}

func TestFromTransaction_MalformedStoreDroppedNotFatal(t *testing.T) {
	txn := userTxn(6, 100, 10)
	txn.Info.Changes = []domain.WriteSetChange{
		{
			Type: domain.ChangeTypeWriteResource,
			WriteResource: &domain.WriteResource{
				Address: "0xa",
				TypeStr: "0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>",
				Data:    json.RawMessage(`not json`),
			},
		},
		coinStoreChange("0xb", "0x1::aptos_coin::AptosCoin", "50", "0xb"),
	}

	out := FromTransaction(txn, testLogger())
	if len(out.Balances) != 1 {
		t.Fatalf("expected surviving store balance, got %d", len(out.Balances))
	}
	if out.Balances[0].OwnerAddress != "0x000000000000000000000000000000000000000000000000000000000000000b" {
		t.Errorf("unexpected surviving owner: %s", out.Balances[0].OwnerAddress)
	}
}

type mockCoinStore struct {
	activities []Activity
	currents   []CurrentBalance
	infos      []Info
}

func (m *mockCoinStore) PersistBatch(ctx context.Context, activities []Activity, balances []Balance, currents []CurrentBalance, infos []Info) error {
	m.activities = activities
	m.currents = currents
	m.infos = infos
	return nil
}

func TestBatchProcessor_ReconcilesCurrentBalances(t *testing.T) {
	coinType := "0x1::aptos_coin::AptosCoin"
	first := userTxn(5, 1, 1)
	first.Info.Changes = []domain.WriteSetChange{
		coinStoreChange("0xa", coinType, "100", "0xa"),
	}
	second := userTxn(7, 1, 1)
	second.Info.Changes = []domain.WriteSetChange{
		coinStoreChange("0xa", coinType, "250", "0xa"),
	}

	store := &mockCoinStore{}
	p := NewBatchProcessor(store, metrics.NewNop(), testLogger())

	res, err := p.ProcessBatch(context.Background(), []*domain.Transaction{first, second}, 5, 7)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if len(store.currents) != 1 {
		t.Fatalf("expected one reconciled current balance, got %d", len(store.currents))
	}
	current := store.currents[0]
	if current.LastTransactionVersion != 7 {
		t.Errorf("expected winning version 7, got %d", current.LastTransactionVersion)
	}
	if !current.Amount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected winning amount 250, got %s", current.Amount)
	}

	if res.StartVersion != 5 || res.EndVersion != 7 {
		t.Errorf("unexpected result range: %+v", res)
	}
	if res.LastTransactionTimestamp.IsZero() {
		t.Error("expected last transaction timestamp to be set")
	}
}

func TestBatchProcessor_MalformedEventDoesNotFailBatch(t *testing.T) {
	good := userTxn(5, 100, 10)
	bad := userTxn(6, 100, 10)
	bad.Events = []domain.Event{{
		Key:  domain.EventKey{AccountAddress: "0xb", CreationNumber: 2},
		Type: "0x1::coin::DepositEvent",
		Data: json.RawMessage(`{"amount":{"not":"a number"}}`),
	}}

	store := &mockCoinStore{}
	p := NewBatchProcessor(store, metrics.NewNop(), testLogger())
	_, err := p.ProcessBatch(context.Background(), []*domain.Transaction{good, bad}, 5, 6)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if len(store.activities) != 2 {
		t.Fatalf("expected both gas rows persisted, got %d", len(store.activities))
	}
	for _, a := range store.activities {
		if !a.IsGasFee {
			t.Errorf("expected only gas rows, got %+v", a)
		}
	}
}
