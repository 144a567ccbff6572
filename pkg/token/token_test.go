package token

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tok, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("Generate() returned invalid base64: %v", err)
	}
	if len(decoded) != DefaultLength {
		t.Errorf("Generate() decoded length = %d, want %d", len(decoded), DefaultLength)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[tok] {
			t.Fatalf("Generate() produced duplicate token: %s", tok)
		}
		seen[tok] = true
	}
}

func TestGenerateWithLength(t *testing.T) {
	for _, n := range []int{8, 16, 64} {
		tok, err := GenerateWithLength(n)
		if err != nil {
			t.Fatalf("GenerateWithLength(%d) error = %v", n, err)
		}
		decoded, err := base64.RawURLEncoding.DecodeString(tok)
		if err != nil {
			t.Fatalf("GenerateWithLength(%d) invalid base64: %v", n, err)
		}
		if len(decoded) != n {
			t.Errorf("GenerateWithLength(%d) decoded length = %d", n, len(decoded))
		}
	}
}

func TestGeneratePrefixed(t *testing.T) {
	tok, err := GeneratePrefixed("tsck_")
	if err != nil {
		t.Fatalf("GeneratePrefixed() error = %v", err)
	}
	if !strings.HasPrefix(tok, "tsck_") {
		t.Errorf("token %q missing prefix", tok)
	}
	if len(tok) != len("tsck_")+43 {
		t.Errorf("token length = %d, want %d", len(tok), len("tsck_")+43)
	}
}

func TestHashAndVerify(t *testing.T) {
	h := Hash("secret")
	if len(h) != 64 {
		t.Fatalf("Hash length = %d, want 64", len(h))
	}
	if !Verify("secret", h) {
		t.Error("Verify() = false for matching token")
	}
	if Verify("other", h) {
		t.Error("Verify() = true for different token")
	}
	if got := HashPrefixed("tsch_", "secret"); got != "tsch_"+h {
		t.Errorf("HashPrefixed() = %q", got)
	}
}
