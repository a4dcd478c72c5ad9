package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/oprema/internal/model"
)

const testSecret = "test-secret-key"

func TestIssueAndParseSession(t *testing.T) {
	actor := model.Actor{UserID: 7, Username: "keeper", Role: model.RoleStorekeeper}

	token, err := IssueSession(testSecret, actor)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	claims, err := ParseSession(testSecret, token)
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}
	if got := claims.Actor(); got != actor {
		t.Errorf("expected actor %+v, got %+v", actor, got)
	}
	if claims.ID == "" || claims.Issuer != Issuer {
		t.Errorf("expected a token id and issuer %q, got %q and %q", Issuer, claims.ID, claims.Issuer)
	}

	// Should be within a few seconds.
	diff := time.Until(claims.ExpiresAt.Time) - SessionLifetime
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("session expiry too far from expected: diff=%v", diff)
	}
}

func TestSessionsHaveDistinctIDs(t *testing.T) {
	actor := model.Actor{UserID: 1, Username: "admin", Role: model.RoleAdmin}
	a, _ := IssueSession(testSecret, actor)
	b, _ := IssueSession(testSecret, actor)
	ca, _ := ParseSession(testSecret, a)
	cb, _ := ParseSession(testSecret, b)
	if ca == nil || cb == nil || ca.ID == cb.ID {
		t.Error("expected distinct token ids")
	}
}

func TestIssueSessionRejectsUnknownRole(t *testing.T) {
	_, err := IssueSession(testSecret, model.Actor{UserID: 1, Username: "x", Role: "owner"})
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
}

// sign builds a token with arbitrary claims for the rejection cases.
func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	return token
}

func TestParseSessionRejects(t *testing.T) {
	valid := func() Claims {
		return Claims{
			UserID: 1, Username: "admin", Role: model.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "01J0000000000000000000000",
				Issuer:    Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}
	hs256 := jwt.SigningMethodHS256

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	noExpiry := valid()
	noExpiry.ExpiresAt = nil
	otherIssuer := valid()
	otherIssuer.Issuer = "skladisce"
	noID := valid()
	noID.ID = ""
	badRole := valid()
	badRole.Role = "owner"

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(t, hs256, []byte("other-secret"), valid())},
		{"other algorithm", sign(t, jwt.SigningMethodHS512, []byte(testSecret), valid())},
		{"expired", sign(t, hs256, []byte(testSecret), expired)},
		{"no expiry", sign(t, hs256, []byte(testSecret), noExpiry)},
		{"other issuer", sign(t, hs256, []byte(testSecret), otherIssuer)},
		{"no token id", sign(t, hs256, []byte(testSecret), noID)},
		{"unknown role", sign(t, hs256, []byte(testSecret), badRole)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSession(testSecret, tt.token); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("expected ErrInvalidSession, got %v", err)
			}
		})
	}

	if _, err := ParseSession(testSecret, sign(t, hs256, []byte(testSecret), valid())); err != nil {
		t.Errorf("expected the baseline token to parse, got %v", err)
	}
}
