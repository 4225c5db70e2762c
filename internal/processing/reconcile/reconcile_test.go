package reconcile

import "testing"

type row struct {
	key     string
	version uint64
	payload string
}

func (r row) PrimaryKey() string { return r.key }
func (r row) RowVersion() uint64 { return r.version }

func TestLastWriterWins(t *testing.T) {
	rows := []row{
		{key: "b", version: 5, payload: "old"},
		{key: "a", version: 3, payload: "only"},
		{key: "b", version: 7, payload: "new"},
	}

	got := LastWriterWins(rows)
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	// Sorted by key
	if got[0].key != "a" || got[1].key != "b" {
		t.Errorf("Expected key-sorted output, got %v", got)
	}
	if got[1].payload != "new" || got[1].version != 7 {
		t.Errorf("Expected highest version kept, got %+v", got[1])
	}
}

func TestLastWriterWins_OrderIndependent(t *testing.T) {
	forward := LastWriterWins([]row{
		{key: "a", version: 3, payload: "old"},
		{key: "a", version: 7, payload: "new"},
	})
	reverse := LastWriterWins([]row{
		{key: "a", version: 7, payload: "new"},
		{key: "a", version: 3, payload: "old"},
	})
	if forward[0].payload != "new" || reverse[0].payload != "new" {
		t.Errorf("Winner must not depend on input order: %+v vs %+v", forward[0], reverse[0])
	}
}

func TestLastWriterWins_EqualVersionLaterInputWins(t *testing.T) {
	got := LastWriterWins([]row{
		{key: "a", version: 5, payload: "first"},
		{key: "a", version: 5, payload: "second"},
	})
	if got[0].payload != "second" {
		t.Errorf("Expected later input to win on equal versions, got %q", got[0].payload)
	}
}

func TestFirstWriterWins(t *testing.T) {
	rows := []row{
		{key: "b", version: 7, payload: "late"},
		{key: "b", version: 5, payload: "early"},
		{key: "a", version: 3, payload: "only"},
	}

	got := FirstWriterWins(rows)
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	if got[1].payload != "early" || got[1].version != 5 {
		t.Errorf("Expected lowest version kept, got %+v", got[1])
	}
}

func TestFirstWriterWins_EqualVersionFirstInputWins(t *testing.T) {
	got := FirstWriterWins([]row{
		{key: "a", version: 5, payload: "first"},
		{key: "a", version: 5, payload: "second"},
	})
	if got[0].payload != "first" {
		t.Errorf("Expected earlier input to win on equal versions, got %q", got[0].payload)
	}
}

func TestEmptyInput(t *testing.T) {
	if got := LastWriterWins([]row{}); len(got) != 0 {
		t.Errorf("Expected empty output, got %v", got)
	}
	if got := FirstWriterWins([]row(nil)); len(got) != 0 {
		t.Errorf("Expected empty output, got %v", got)
	}
}
