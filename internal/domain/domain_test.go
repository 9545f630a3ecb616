package domain

import (
	"testing"
	"time"
)

func TestNewEventReceiver_Fingerprint(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []any{"name"},
	}
	now := time.Now()

	r1, err := NewEventReceiver(NewEventReceiverParams{
		Name: "foobar", Type: "foo.bar", Version: "1.1.3", Schema: schema, OwnerID: "U1",
	}, now)
	if err != nil {
		t.Fatalf("NewEventReceiver() error = %v", err)
	}
	if r1.ResourceVersion != 1 {
		t.Errorf("ResourceVersion = %d, want 1", r1.ResourceVersion)
	}

	r2, err := NewEventReceiver(NewEventReceiverParams{
		Name: "foobar", Type: "foo.bar", Version: "1.1.3", Schema: schema, OwnerID: "U2",
	}, now)
	if err != nil {
		t.Fatalf("NewEventReceiver() error = %v", err)
	}

	if r1.Fingerprint != r2.Fingerprint {
		t.Errorf("identical (name,type,version,schema) produced different fingerprints: %q != %q", r1.Fingerprint, r2.Fingerprint)
	}
}

func TestNewEventReceiver_RejectsMalformedInput(t *testing.T) {
	now := time.Now()
	validSchema := map[string]any{"type": "object"}

	tests := []struct {
		name      string
		params    NewEventReceiverParams
		wantField string
	}{
		{"empty name", NewEventReceiverParams{Type: "t", Version: "v", Schema: validSchema, OwnerID: "U1"}, "name"},
		{"empty type", NewEventReceiverParams{Name: "n", Version: "v", Schema: validSchema, OwnerID: "U1"}, "type"},
		{"empty version", NewEventReceiverParams{Name: "n", Type: "t", Schema: validSchema, OwnerID: "U1"}, "version"},
		{"nil schema", NewEventReceiverParams{Name: "n", Type: "t", Version: "v", OwnerID: "U1"}, "schema"},
		{"empty owner", NewEventReceiverParams{Name: "n", Type: "t", Version: "v", Schema: validSchema}, "owner_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEventReceiver(tt.params, now)
			var verr *ValidationError
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if ve, ok := err.(*ValidationError); ok {
				verr = ve
			} else {
				t.Fatalf("error is not *ValidationError: %T", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestNewEventReceiverGroup_RejectsDuplicateReceivers(t *testing.T) {
	_, err := NewEventReceiverGroup(NewEventReceiverGroupParams{
		Name: "g", Type: "t", Version: "v", OwnerID: "U1",
		EventReceiverIDs: []EventReceiverID{"R1", "R1"},
	}, time.Now())
	if err == nil {
		t.Fatal("expected error for duplicate receiver ids, got nil")
	}
}

func TestNewGroupMembership_RejectsSelfAdd(t *testing.T) {
	_, err := NewGroupMembership("G1", "U1", "U1", time.Now())
	if err == nil {
		t.Fatal("expected error when user_id == added_by, got nil")
	}
}

func TestNewUser_RejectsEmptyPasswordHashForLocal(t *testing.T) {
	_, err := NewUser(NewUserParams{
		Username: "alice", Email: "alice@example.com",
		Provider: ProviderLocal, Roles: []Role{RoleUser},
	}, time.Now())
	if err == nil {
		t.Fatal("expected error for empty password_hash on a local user, got nil")
	}
}

func TestNewUser_RejectsPasswordHashForOidc(t *testing.T) {
	_, err := NewUser(NewUserParams{
		Username: "alice", Email: "alice@example.com", PasswordHash: "hash",
		Provider: ProviderOidc, ProviderSubject: "sub-1", Roles: []Role{RoleUser},
	}, time.Now())
	if err == nil {
		t.Fatal("expected error for non-empty password_hash on an oidc user, got nil")
	}
}

func TestComputeFingerprint_KeyOrderIndependent(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2}
	b := map[string]any{"a": 2, "b": 1}

	fa, err := ComputeFingerprint("n", "t", "v", a)
	if err != nil {
		t.Fatal(err)
	}
	fb, err := ComputeFingerprint("n", "t", "v", b)
	if err != nil {
		t.Fatal(err)
	}
	if fa != fb {
		t.Errorf("fingerprints differ for maps with different key insertion order: %q != %q", fa, fb)
	}
}
