package host

import "testing"

func TestIdentityEnvOverride(t *testing.T) {
	t.Setenv("TABLETODO_USER", "env-user")
	id, err := CurrentIdentity()
	if err != nil {
		t.Fatalf("CurrentIdentity: %v", err)
	}
	if id == nil || id.UserID != "env-user" || id.Source != "env" {
		t.Errorf("got %+v, want env-user from env", id)
	}
}

func TestIdentityFileLifecycle(t *testing.T) {
	t.Setenv("TABLETODO_USER", "")
	t.Setenv("HOME", t.TempDir())

	id, err := CurrentIdentity()
	if err != nil {
		t.Fatalf("CurrentIdentity: %v", err)
	}
	if id != nil {
		t.Fatalf("expected no identity, got %+v", id)
	}

	if err := SetIdentity("u1"); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	id, err = CurrentIdentity()
	if err != nil {
		t.Fatalf("CurrentIdentity after set: %v", err)
	}
	if id == nil || id.UserID != "u1" || id.Source != "file" {
		t.Errorf("got %+v, want u1 from file", id)
	}

	if err := ClearIdentity(); err != nil {
		t.Fatalf("ClearIdentity: %v", err)
	}
	id, err = CurrentIdentity()
	if err != nil {
		t.Fatalf("CurrentIdentity after clear: %v", err)
	}
	if id != nil {
		t.Errorf("identity survived clear: %+v", id)
	}

	// clearing twice is fine
	if err := ClearIdentity(); err != nil {
		t.Errorf("second ClearIdentity: %v", err)
	}
}

func TestSetIdentityEmpty(t *testing.T) {
	if err := SetIdentity("   "); err == nil {
		t.Error("expected error for blank user id")
	}
}
