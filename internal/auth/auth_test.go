package auth

import (
	"testing"
	"time"

	"videotube/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "password123", false},
		{"empty password", "", false},
		{"long password", "a" + string(make([]byte, 70)), false}, // bcrypt max is 72 bytes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && hash == "" {
				t.Error("HashPassword() returned empty hash")
			}
		})
	}
}

func TestHashPassword_DifferentHashes(t *testing.T) {
	password := "testpassword"
	hash1, _ := HashPassword(password)
	hash2, _ := HashPassword(password)

	if hash1 == hash2 {
		t.Error("HashPassword() should produce different hashes for same password")
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "testpassword123"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{"correct password", hash, password, true},
		{"wrong password", hash, "wrongpassword", false},
		{"empty password", hash, "", false},
		{"invalid hash", "invalidhash", password, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(tt.hash, tt.password); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func testAccount() *models.Account {
	return &models.Account{ID: primitive.NewObjectID(), Username: "alice", Email: "alice@x.com", FullName: "Alice"}
}

func TestParseAccessToken(t *testing.T) {
	secret := "test-secret-key"
	acc := testAccount()

	token, err := GenerateAccessToken(acc, secret, 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	refresh, err := GenerateRefreshToken(acc.ID.Hex(), secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{"valid token", token, secret, false},
		{"wrong secret", token, "wrong-secret", true},
		{"refresh token as access", refresh, secret, true},
		{"invalid token", "invalid.token.here", secret, true},
		{"empty token", "", secret, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseAccessToken(tt.token, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAccessToken() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if claims.AccountID != acc.ID.Hex() {
					t.Errorf("ParseAccessToken() AccountID = %v, want %v", claims.AccountID, acc.ID.Hex())
				}
				if claims.Username != "alice" || claims.Email != "alice@x.com" {
					t.Errorf("ParseAccessToken() claims = %+v", claims)
				}
			}
		})
	}
}

func TestParseRefreshToken_CarriesIDOnly(t *testing.T) {
	id := primitive.NewObjectID().Hex()
	token, err := GenerateRefreshToken(id, "refresh-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	claims, err := ParseRefreshToken(token, "refresh-secret")
	if err != nil {
		t.Fatalf("ParseRefreshToken() error = %v", err)
	}
	if claims.AccountID != id || claims.Subject != id {
		t.Errorf("ParseRefreshToken() ids = %v/%v, want %v", claims.AccountID, claims.Subject, id)
	}
	if claims.Username != "" || claims.Email != "" {
		t.Error("refresh token should not carry profile claims")
	}
	if _, err := ParseAccessToken(token, "refresh-secret"); err == nil {
		t.Error("ParseAccessToken() should reject a refresh token")
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	secret := "test-secret"
	// Generate token with -1 minute TTL (already expired)
	token, err := GenerateAccessToken(testAccount(), secret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ParseAccessToken(token, secret)
	if err == nil {
		t.Error("ParseAccessToken() should return error for expired token")
	}
	if claims != nil {
		t.Error("ParseAccessToken() should return nil claims for expired token")
	}
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	id := primitive.NewObjectID().Hex()
	token1, err := GenerateRefreshToken(id, "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	token2, err := GenerateRefreshToken(id, "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if token1 == "" {
		t.Error("GenerateRefreshToken() returned empty token")
	}
	if token1 == token2 {
		t.Error("GenerateRefreshToken() should generate unique tokens")
	}
}
