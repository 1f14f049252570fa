package session

import "testing"

func TestStoreLifecycle(t *testing.T) {
	s := New()

	if s.Authenticated() {
		t.Fatal("zero store must be unauthenticated")
	}
	if _, ok := s.Credential(); ok {
		t.Fatal("expected no credential")
	}

	s.SetCredential("tok-123")
	s.SetIdentity("u1", "bot")

	tok, ok := s.Credential()
	if !ok || tok != "tok-123" {
		t.Errorf("Credential() = %q, %v", tok, ok)
	}
	if s.UserID() != "u1" || s.Username() != "bot" {
		t.Errorf("identity = %q/%q", s.UserID(), s.Username())
	}

	s.Clear()
	if s.Authenticated() || s.UserID() != "" || s.Username() != "" {
		t.Error("Clear did not reset state")
	}
}
