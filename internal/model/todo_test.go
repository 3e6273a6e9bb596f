package model

import (
	"encoding/json"
	"testing"
)

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if len(id) != 16 {
			t.Fatalf("id length: got %d (%q), want 16", len(id), id)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestToDoWireShape(t *testing.T) {
	b, err := json.Marshal(ToDo{ID: "x", Label: "l", IsDone: true, UserID: "u"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"x","label":"l","isDone":true,"userId":"u"}`
	if string(b) != want {
		t.Errorf("wire shape: got %s, want %s", b, want)
	}
}
