package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Configure("test-secret", time.Hour)

	userID := uuid.New()
	stationID := uuid.New()
	token, err := GenerateToken(userID, "staff@example.com", "Staff", "STAFF", &stationID, []string{"shift:open"}, "v1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.StationID == nil || *claims.StationID != stationID {
		t.Errorf("StationID = %v, want %s", claims.StationID, stationID)
	}
	if claims.TokenVersion != "v1" {
		t.Errorf("TokenVersion = %q, want v1", claims.TokenVersion)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	Configure("test-secret", time.Hour)
	token, err := GenerateToken(uuid.New(), "a@b.c", "A", "ADMIN", nil, nil, "v")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"tampered", token + "x", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	Configure("other-secret", 0)
	defer Configure("test-secret", 0)
	if _, err := ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with old secret: err = %v, want ErrInvalidToken", err)
	}
}
