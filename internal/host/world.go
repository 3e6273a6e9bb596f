package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// ErrUserNotFound is returned by flag writes addressed to an unknown user.
var ErrUserNotFound = errors.New("user not found")

// User is one entry in the world's user directory. Flags hold per-module
// persisted objects, namespace -> key -> object.
type User struct {
	ID    string                               `json:"id"`
	Name  string                               `json:"name,omitempty"`
	Flags map[string]map[string]map[string]any `json:"flags,omitempty"`
}

// World is the user directory plus per-user flag storage, backed by a single
// JSON file. Human-readable and portable; no locking, matching a local
// single-client setup.
type World struct {
	path  string
	users map[string]*User
}

type worldFile struct {
	Users []*User `json:"users"`
}

// Open loads the world file at path. A missing file yields an empty world.
func Open(path string) (*World, error) {
	w := &World{path: path, users: make(map[string]*User)}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return w, nil
		}
		return nil, fmt.Errorf("read world file: %w", err)
	}
	if err := validateWorld(b); err != nil {
		return nil, fmt.Errorf("validate world file %s: %w", path, err)
	}
	var wf worldFile
	if err := json.Unmarshal(b, &wf); err != nil {
		return nil, fmt.Errorf("parse world file: %w", err)
	}
	for _, u := range wf.Users {
		w.users[u.ID] = u
	}
	return w, nil
}

// Save writes the whole world back to its file in one write.
func (w *World) Save() error {
	wf := worldFile{Users: w.Users()}
	b, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(w.path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write world file: %w", err)
	}
	return nil
}

// User returns the user with the given id.
func (w *World) User(id string) (*User, bool) {
	u, ok := w.users[id]
	return u, ok
}

// Users returns every known user sorted by id.
func (w *World) Users() []*User {
	out := make([]*User, 0, len(w.users))
	for _, u := range w.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddUser adds a user to the directory and persists the world.
func (w *World) AddUser(id, name string) error {
	if id == "" {
		return fmt.Errorf("empty user id")
	}
	if _, ok := w.users[id]; ok {
		return fmt.Errorf("user %q already exists", id)
	}
	w.users[id] = &User{ID: id, Name: name}
	return w.Save()
}

// GetFlag returns the flag object stored for a user under namespace and key,
// or nil when the user, namespace, or key is absent. Absence is the signal;
// no error is raised for an unknown user.
func (w *World) GetFlag(userID, namespace, key string) map[string]any {
	u, ok := w.users[userID]
	if !ok || u.Flags == nil {
		return nil
	}
	ns, ok := u.Flags[namespace]
	if !ok {
		return nil
	}
	return ns[key]
}

// SetFlag applies p to the user's flag object and persists the world in one
// write. The stored object is merge-patched, never replaced wholesale.
func (w *World) SetFlag(userID, namespace, key string, p Patch) error {
	u, ok := w.users[userID]
	if !ok {
		return fmt.Errorf("set flag %s.%s for %s: %w", namespace, key, userID, ErrUserNotFound)
	}
	if u.Flags == nil {
		u.Flags = make(map[string]map[string]map[string]any)
	}
	if u.Flags[namespace] == nil {
		u.Flags[namespace] = make(map[string]map[string]any)
	}
	u.Flags[namespace][key] = Apply(u.Flags[namespace][key], p)
	return w.Save()
}
