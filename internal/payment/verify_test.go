package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"testing"
)

func signProof(key, reference string, amount int64) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(reference))
	mac.Write([]byte(strconv.FormatInt(amount, 10)))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidProof(t *testing.T) {
	v := Verifier{ServerKey: "secret"}
	p := Proof{Reference: "TX-1001", Amount: 25000, Signature: signProof("secret", "TX-1001", 25000)}
	if err := v.Verify(p); err != nil {
		t.Fatalf("expected valid proof, got %v", err)
	}
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	v := Verifier{ServerKey: "secret"}
	p := Proof{Reference: "TX-1001", Amount: 25000, Signature: signProof("other", "TX-1001", 25000)}
	if err := v.Verify(p); !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification, got %v", err)
	}
}

func TestVerifyRejectsTamperedAmount(t *testing.T) {
	// Signature was minted over a different amount than the proof claims.
	v := Verifier{ServerKey: "secret"}
	p := Proof{Reference: "TX-1001", Amount: 30000, Signature: signProof("secret", "TX-1001", 25000)}
	if err := v.Verify(p); !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification, got %v", err)
	}
}

func TestVerifyRejectsMissingFields(t *testing.T) {
	v := Verifier{ServerKey: "secret"}
	cases := []Proof{
		{Reference: "", Amount: 100, Signature: "x"},
		{Reference: "TX", Amount: 100, Signature: ""},
	}
	for _, p := range cases {
		if err := v.Verify(p); !errors.Is(err, ErrVerification) {
			t.Fatalf("expected ErrVerification for %+v, got %v", p, err)
		}
	}
}

func TestVerifyFailsWithoutServerKey(t *testing.T) {
	v := Verifier{}
	p := Proof{Reference: "TX-1001", Amount: 100, Signature: signProof("", "TX-1001", 100)}
	if err := v.Verify(p); !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification, got %v", err)
	}
}

func TestVerifyAmountMatchesTotal(t *testing.T) {
	v := Verifier{ServerKey: "secret"}
	p := Proof{Reference: "TX-1001", Amount: 25000, Signature: signProof("secret", "TX-1001", 25000)}
	if err := v.VerifyAmount(p, 25000); err != nil {
		t.Fatalf("expected matching amount, got %v", err)
	}
	if err := v.VerifyAmount(p, 30000); !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification on mismatch, got %v", err)
	}
}
