package security_test

import (
	"strings"
	"testing"

	"github.com/churchconnect/churchconnect-backend/pkg/config"
	"github.com/churchconnect/churchconnect-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := testPasswordConfig()

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestEnsureHashedNeverDoubleHashes(t *testing.T) {
	cfg := testPasswordConfig()

	hash, err := security.HashPassword("seed-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	again, err := security.EnsureHashed(hash, cfg)
	if err != nil {
		t.Fatalf("EnsureHashed returned error for hashed input: %v", err)
	}
	if again != hash {
		t.Fatal("EnsureHashed must return an already-hashed value unchanged")
	}
}

func TestEnsureHashedNeverStoresPlaintext(t *testing.T) {
	cfg := testPasswordConfig()

	out, err := security.EnsureHashed("plaintext-secret", cfg)
	if err != nil {
		t.Fatalf("EnsureHashed returned error: %v", err)
	}
	if out == "plaintext-secret" {
		t.Fatal("EnsureHashed must not return plaintext")
	}
	if !security.LooksHashed(out) {
		t.Fatalf("EnsureHashed output is not a recognizable hash: %q", out)
	}

	ok, err := security.VerifyPassword("plaintext-secret", out)
	if err != nil || !ok {
		t.Fatalf("hashed plaintext should verify (ok=%v err=%v)", ok, err)
	}
}

func TestLooksHashed(t *testing.T) {
	if security.LooksHashed("password123") {
		t.Fatal("plaintext should not look hashed")
	}
	if !security.LooksHashed("$argon2id$v=19$m=32768,t=1,p=1$" + strings.Repeat("A", 22) + "$" + strings.Repeat("B", 43)) {
		t.Fatal("argon2id string should look hashed")
	}
}
