package services

import "testing"

func TestGenerateRefreshToken(t *testing.T) {
	token, hash, err := generateRefreshToken()
	if err != nil {
		t.Fatalf("generateRefreshToken() error: %v", err)
	}

	// 32 random bytes, hex encoded
	if len(token) != 64 {
		t.Errorf("token length = %d, expected 64", len(token))
	}
	if len(hash) != 64 {
		t.Errorf("hash length = %d, expected 64", len(hash))
	}
	if token == hash {
		t.Error("token and its hash must differ")
	}
	if hashRefreshToken(token) != hash {
		t.Error("returned hash does not match hashRefreshToken(token)")
	}
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	t1, _, err := generateRefreshToken()
	if err != nil {
		t.Fatal(err)
	}
	t2, _, err := generateRefreshToken()
	if err != nil {
		t.Fatal(err)
	}
	if t1 == t2 {
		t.Error("two generated tokens are identical")
	}
}

func TestHashRefreshToken_Deterministic(t *testing.T) {
	if hashRefreshToken("abc") != hashRefreshToken("abc") {
		t.Error("hash of the same token differs between calls")
	}
	if hashRefreshToken("abc") == hashRefreshToken("abd") {
		t.Error("different tokens produced the same hash")
	}
}
