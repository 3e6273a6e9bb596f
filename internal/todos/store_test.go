package todos

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"tabletodo/internal/host"
	"tabletodo/internal/model"
)

func newTestStore(t *testing.T, userIDs ...string) (*host.World, *Store) {
	t.Helper()
	w, err := host.Open(filepath.Join(t.TempDir(), "world.json"))
	if err != nil {
		t.Fatalf("open world: %v", err)
	}
	for _, id := range userIDs {
		if err := w.AddUser(id, ""); err != nil {
			t.Fatalf("add user %s: %v", id, err)
		}
	}
	return w, NewStore(w, "tabletodo", log.New(io.Discard))
}

func TestCreateDefaults(t *testing.T) {
	_, s := newTestStore(t, "u1")

	got, err := s.Create("u1", model.Partial{Label: model.String("Buy milk")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(got.ID) != 16 {
		t.Errorf("id length: got %d, want 16", len(got.ID))
	}
	if got.UserID != "u1" {
		t.Errorf("userId: got %q, want u1", got.UserID)
	}
	if got.IsDone {
		t.Error("isDone should default to false")
	}

	byID := s.ForUser("u1")
	if len(byID) != 1 {
		t.Fatalf("mapping size: got %d, want 1", len(byID))
	}
	stored := byID[got.ID]
	if stored.Label != "Buy milk" || stored.IsDone || stored.UserID != "u1" {
		t.Errorf("stored record: %+v", stored)
	}
}

func TestCreateCallerIsDoneWins(t *testing.T) {
	_, s := newTestStore(t, "u1")
	got, err := s.Create("u1", model.Partial{IsDone: model.Bool(true)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !got.IsDone {
		t.Error("caller-supplied isDone was overridden by the default")
	}
	if !s.ForUser("u1")[got.ID].IsDone {
		t.Error("stored isDone lost the caller value")
	}
}

func TestCreateMergesNotReplaces(t *testing.T) {
	_, s := newTestStore(t, "u1")
	first, err := s.Create("u1", model.Partial{Label: model.String("one")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := s.ForUser("u1")

	second, err := s.Create("u1", model.Partial{Label: model.String("two")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	after := s.ForUser("u1")
	if len(after) != len(before)+1 {
		t.Fatalf("mapping size: got %d, want %d", len(after), len(before)+1)
	}
	if after[first.ID] != before[first.ID] {
		t.Errorf("existing entry changed: %+v vs %+v", after[first.ID], before[first.ID])
	}
	if after[second.ID].Label != "two" {
		t.Errorf("new entry: %+v", after[second.ID])
	}
	if first.ID == second.ID {
		t.Error("generated ids collided")
	}
}

func TestCreateUnknownUser(t *testing.T) {
	_, s := newTestStore(t, "u1")
	_, err := s.Create("ghost", model.Partial{})
	if !errors.Is(err, host.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if got := s.ForUser("ghost"); got != nil {
		t.Errorf("unknown user gained todos: %v", got)
	}
}

func TestForUserAbsent(t *testing.T) {
	_, s := newTestStore(t, "u1")
	if got := s.ForUser("u1"); got != nil {
		t.Errorf("user with no todos: got %v, want nil", got)
	}
	if got := s.ForUser("nobody"); got != nil {
		t.Errorf("unknown user: got %v, want nil", got)
	}
}

func TestUpdateChangesOnlyTargetField(t *testing.T) {
	_, s := newTestStore(t, "u1", "u2")
	t1, _ := s.Create("u1", model.Partial{Label: model.String("alpha")})
	t2, _ := s.Create("u1", model.Partial{Label: model.String("beta")})
	t3, _ := s.Create("u2", model.Partial{Label: model.String("gamma")})

	if err := s.Update(t1.ID, model.Partial{Label: model.String("renamed")}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	u1 := s.ForUser("u1")
	if u1[t1.ID].Label != "renamed" {
		t.Errorf("label: got %q, want renamed", u1[t1.ID].Label)
	}
	if u1[t1.ID].IsDone || u1[t1.ID].UserID != "u1" || u1[t1.ID].ID != t1.ID {
		t.Errorf("other fields changed: %+v", u1[t1.ID])
	}
	if u1[t2.ID].Label != "beta" {
		t.Errorf("sibling todo changed: %+v", u1[t2.ID])
	}
	if s.ForUser("u2")[t3.ID].Label != "gamma" {
		t.Errorf("other user's todo changed: %+v", s.ForUser("u2")[t3.ID])
	}
}

func TestUpdateIsDone(t *testing.T) {
	_, s := newTestStore(t, "u1")
	t1, _ := s.Create("u1", model.Partial{Label: model.String("task")})

	if err := s.Update(t1.ID, model.Partial{IsDone: model.Bool(true)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got := s.ForUser("u1")[t1.ID]
	if !got.IsDone {
		t.Error("isDone not set")
	}
	if got.Label != "task" {
		t.Errorf("label changed: %q", got.Label)
	}
}

func TestUpdateMissingID(t *testing.T) {
	_, s := newTestStore(t, "u1")
	err := s.Update("nope", model.Partial{Label: model.String("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	_, s := newTestStore(t, "u1", "u2")
	t1, _ := s.Create("u1", model.Partial{Label: model.String("a")})
	t2, _ := s.Create("u1", model.Partial{Label: model.String("b")})
	t3, _ := s.Create("u2", model.Partial{Label: model.String("c")})

	if err := s.Delete(t1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	u1 := s.ForUser("u1")
	if _, ok := u1[t1.ID]; ok {
		t.Error("deleted todo still present")
	}
	if _, ok := u1[t2.ID]; !ok {
		t.Error("sibling todo removed")
	}
	if _, ok := s.ForUser("u2")[t3.ID]; !ok {
		t.Error("other user's todo removed")
	}
}

func TestDeleteMissingID(t *testing.T) {
	_, s := newTestStore(t, "u1")
	if err := s.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAllIsUnion(t *testing.T) {
	_, s := newTestStore(t, "u1", "u2", "u3")
	t1, _ := s.Create("u1", model.Partial{Label: model.String("a")})
	t2, _ := s.Create("u2", model.Partial{Label: model.String("b")})
	t3, _ := s.Create("u2", model.Partial{Label: model.String("c")})

	all := s.All()
	if len(all) != 3 {
		t.Fatalf("union size: got %d, want 3", len(all))
	}
	for _, tt := range []struct {
		id    string
		owner string
	}{{t1.ID, "u1"}, {t2.ID, "u2"}, {t3.ID, "u2"}} {
		got, ok := all[tt.id]
		if !ok {
			t.Errorf("entry %s missing from union", tt.id)
			continue
		}
		if got.UserID != tt.owner {
			t.Errorf("entry %s owner: got %s, want %s", tt.id, got.UserID, tt.owner)
		}
	}
}

func TestUpdateUserToDosBulk(t *testing.T) {
	_, s := newTestStore(t, "u1")
	t1, _ := s.Create("u1", model.Partial{Label: model.String("a")})
	t2, _ := s.Create("u1", model.Partial{Label: model.String("b")})

	err := s.UpdateUserToDos("u1", map[string]model.Partial{
		t1.ID: {IsDone: model.Bool(true)},
		t2.ID: {Label: model.String("renamed")},
	})
	if err != nil {
		t.Fatalf("UpdateUserToDos: %v", err)
	}
	byID := s.ForUser("u1")
	if !byID[t1.ID].IsDone || byID[t1.ID].Label != "a" {
		t.Errorf("t1: %+v", byID[t1.ID])
	}
	if byID[t2.ID].Label != "renamed" || byID[t2.ID].IsDone {
		t.Errorf("t2: %+v", byID[t2.ID])
	}
}

func TestUpdateUserToDosUnknownUser(t *testing.T) {
	_, s := newTestStore(t, "u1")
	err := s.UpdateUserToDos("ghost", map[string]model.Partial{"x": {Label: model.String("y")}})
	if !errors.Is(err, host.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUserToDosEmpty(t *testing.T) {
	_, s := newTestStore(t, "u1")
	if err := s.UpdateUserToDos("u1", nil); err != nil {
		t.Errorf("empty bulk update: %v", err)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.json")
	w, err := host.Open(path)
	if err != nil {
		t.Fatalf("open world: %v", err)
	}
	if err := w.AddUser("u1", ""); err != nil {
		t.Fatalf("add user: %v", err)
	}
	s := NewStore(w, "tabletodo", log.New(io.Discard))
	created, err := s.Create("u1", model.Partial{Label: model.String("persist me")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	reopened, err := host.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s2 := NewStore(reopened, "tabletodo", log.New(io.Discard))
	got := s2.ForUser("u1")[created.ID]
	if got.Label != "persist me" || got.UserID != "u1" {
		t.Errorf("record after reopen: %+v", got)
	}
}
