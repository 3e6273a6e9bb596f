// Package todos is the data-access layer: CRUD over per-user todo mappings
// held in the world's flag storage.
package todos

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"tabletodo/internal/host"
	"tabletodo/internal/model"
)

// FlagKey is the fixed key under which a user's todo mapping is stored.
const FlagKey = "todos"

// ErrNotFound is returned when a todo id does not resolve to any record.
var ErrNotFound = errors.New("todo not found")

// Store reads and writes todo records through a world's flag storage.
// Every record lives inside its owning user's flag slot; there is no
// cross-user collection on disk.
type Store struct {
	world     *host.World
	namespace string
	log       *log.Logger
}

// NewStore binds a store to a world and flag namespace.
func NewStore(world *host.World, namespace string, logger *log.Logger) *Store {
	return &Store{world: world, namespace: namespace, log: logger}
}

// ForUser returns the todo mapping for a user, or nil when the user is
// unknown or has no todos. Absence is the signal; no error is raised.
func (s *Store) ForUser(userID string) map[string]model.ToDo {
	raw := s.world.GetFlag(userID, s.namespace, FlagKey)
	if raw == nil {
		return nil
	}
	return decodeAll(raw)
}

// All merges every known user's mapping into one global view, iterating
// users in sorted order. Ids are random per creation, so collisions are not
// expected; if one occurs the later user's entry wins.
func (s *Store) All() map[string]model.ToDo {
	out := make(map[string]model.ToDo)
	for _, u := range s.world.Users() {
		for id, t := range s.ForUser(u.ID) {
			out[id] = t
		}
	}
	return out
}

// Create generates a fresh record for userID and writes it as a single-entry
// merge-patch, so the user's existing todos survive. Field precedence: the
// isDone default is used only when the caller did not supply one; the
// generated id and owning user always win.
func (s *Store) Create(userID string, p model.Partial) (model.ToDo, error) {
	if _, ok := s.world.User(userID); !ok {
		return model.ToDo{}, fmt.Errorf("create todo for %s: %w", userID, host.ErrUserNotFound)
	}
	t := model.ToDo{ID: model.NewID(), UserID: userID}
	if p.Label != nil {
		t.Label = *p.Label
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
	patch := host.Patch{t.ID: host.Set(encode(t))}
	if err := s.world.SetFlag(userID, s.namespace, FlagKey, patch); err != nil {
		return model.ToDo{}, fmt.Errorf("create todo: %w", err)
	}
	s.log.Debug("created todo", "user", userID, "id", t.ID)
	return t, nil
}

// Update merge-patches only the supplied fields of one record, resolving the
// owner through the global view. A missing id is ErrNotFound.
func (s *Store) Update(todoID string, p model.Partial) error {
	t, ok := s.All()[todoID]
	if !ok {
		return fmt.Errorf("update todo %s: %w", todoID, ErrNotFound)
	}
	patch := host.Patch{todoID: host.Merge(fieldPatch(p))}
	if err := s.world.SetFlag(t.UserID, s.namespace, FlagKey, patch); err != nil {
		return fmt.Errorf("update todo %s: %w", todoID, err)
	}
	s.log.Debug("updated todo", "user", t.UserID, "id", todoID)
	return nil
}

// Delete removes exactly one record from its owner's mapping. A missing id
// is ErrNotFound.
func (s *Store) Delete(todoID string) error {
	t, ok := s.All()[todoID]
	if !ok {
		return fmt.Errorf("delete todo %s: %w", todoID, ErrNotFound)
	}
	patch := host.Patch{todoID: host.Remove()}
	if err := s.world.SetFlag(t.UserID, s.namespace, FlagKey, patch); err != nil {
		return fmt.Errorf("delete todo %s: %w", todoID, err)
	}
	s.log.Debug("deleted todo", "user", t.UserID, "id", todoID)
	return nil
}

// UpdateUserToDos merge-patches many records of one user in a single write.
// This is the form submission path: several field edits, one persist.
func (s *Store) UpdateUserToDos(userID string, updates map[string]model.Partial) error {
	if len(updates) == 0 {
		return nil
	}
	patch := host.Patch{}
	for id, p := range updates {
		patch[id] = host.Merge(fieldPatch(p))
	}
	if err := s.world.SetFlag(userID, s.namespace, FlagKey, patch); err != nil {
		return fmt.Errorf("update todos for %s: %w", userID, err)
	}
	s.log.Debug("bulk updated todos", "user", userID, "count", len(updates))
	return nil
}

// fieldPatch translates a Partial into flag-level operations.
func fieldPatch(p model.Partial) host.Patch {
	fields := host.Patch{}
	if p.Label != nil {
		fields["label"] = host.Set(*p.Label)
	}
	if p.IsDone != nil {
		fields["isDone"] = host.Set(*p.IsDone)
	}
	return fields
}

// encode and decodeAll round-trip records through JSON so flag storage only
// ever holds plain JSON object types.
func encode(t model.ToDo) map[string]any {
	b, err := json.Marshal(t)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

func decodeAll(raw map[string]any) map[string]model.ToDo {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var out map[string]model.ToDo
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
