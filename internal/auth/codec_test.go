package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCodec_IssueAccess(t *testing.T) {
	codec := testCodec()

	issued, err := codec.IssueAccess("jack", "ADMIN")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	if issued.Value == "" {
		t.Fatal("expected non-empty token value")
	}
	if parts := strings.Split(issued.Value, "."); len(parts) != 3 {
		t.Errorf("expected 3 token segments, got %d", len(parts))
	}
	if remaining := time.Until(issued.ExpiresAt); remaining < 14*time.Minute || remaining > 15*time.Minute {
		t.Errorf("unexpected expiry, remaining = %v", remaining)
	}

	claims, err := codec.Claims(issued.Value)
	if err != nil {
		t.Fatalf("Claims() error = %v", err)
	}
	if claims.Subject != "jack" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "jack")
	}
	if claims.Role != "ADMIN" {
		t.Errorf("Role = %q, want %q", claims.Role, "ADMIN")
	}
}

func TestCodec_IssueRefresh_NoRoleClaim(t *testing.T) {
	codec := testCodec()

	issued, err := codec.IssueRefresh("jack")
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}

	claims, err := codec.Claims(issued.Value)
	if err != nil {
		t.Fatalf("Claims() error = %v", err)
	}
	if claims.Role != "" {
		t.Errorf("refresh token should carry no role claim, got %q", claims.Role)
	}
	if remaining := time.Until(issued.ExpiresAt); remaining < 7*24*time.Hour-time.Minute {
		t.Errorf("refresh expiry too short, remaining = %v", remaining)
	}
}

func TestCodec_Validate(t *testing.T) {
	codec := testCodec()

	issued, err := codec.IssueAccess("jack", "USER")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "genuine token", token: issued.Value, want: true},
		{name: "empty token", token: "", want: false},
		{name: "garbage", token: "not-a-token", want: false},
		{name: "tampered payload", token: tamper(t, issued.Value), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := codec.Validate(tt.token); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodec_Validate_WrongSecret(t *testing.T) {
	issued, err := testCodec().IssueAccess("jack", "USER")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	other := NewCodec("another-secret-key-at-least-32-ch", 15*time.Minute, time.Hour)
	if other.Validate(issued.Value) {
		t.Error("token signed with a different secret should not validate")
	}
}

func TestCodec_Validate_Expired(t *testing.T) {
	expired := NewCodec("test-secret-key-at-least-32-chars!", -time.Minute, -time.Minute)

	issued, err := expired.IssueAccess("jack", "USER")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	codec := testCodec()
	if codec.Validate(issued.Value) {
		t.Error("expired token should not validate")
	}
}

func TestCodec_Subject_ExpiredToken(t *testing.T) {
	// Logout must identify the caller from an access token that has
	// already expired; only the signature is checked.
	expired := NewCodec("test-secret-key-at-least-32-chars!", -time.Minute, -time.Minute)

	issued, err := expired.IssueAccess("emma", "USER")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	subject, err := testCodec().Subject(issued.Value)
	if err != nil {
		t.Fatalf("Subject() error = %v", err)
	}
	if subject != "emma" {
		t.Errorf("Subject = %q, want %q", subject, "emma")
	}
}

func TestCodec_Subject_ForgedToken(t *testing.T) {
	issued, err := NewCodec("another-secret-key-at-least-32-ch", time.Minute, time.Hour).IssueAccess("emma", "USER")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	_, err = testCodec().Subject(issued.Value)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Subject() error = %v, want ErrTokenInvalid", err)
	}
}

func TestNewCodec_Base64Secret(t *testing.T) {
	raw := "test-secret-key-at-least-32-chars!"
	encoded := base64.StdEncoding.EncodeToString([]byte(raw))

	// A base64-encoded secret decodes to the same key as the raw bytes,
	// so tokens issued by one codec validate under the other.
	rawCodec := NewCodec(raw, time.Minute, time.Hour)
	b64Codec := NewCodec(encoded, time.Minute, time.Hour)

	issued, err := b64Codec.IssueAccess("jack", "USER")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	// The raw string happens not to be valid base64, so it is used verbatim.
	if !rawCodec.Validate(issued.Value) {
		t.Error("expected base64-decoded key to match raw fallback key")
	}
}

// tamper flips the payload segment of a JWT while keeping the signature.
func tamper(t *testing.T, token string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token format: %s", token)
	}
	payload := []byte(`{"sub":"intruder","role":"ADMIN"}`)
	parts[1] = base64.RawURLEncoding.EncodeToString(payload)
	return strings.Join(parts, ".")
}
