package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

// ErrVerification is returned when a prepaid payment proof does not match
// the expected signature.
var ErrVerification = errors.New("payment verification failed")

// Methods accepted at checkout.
const (
	MethodCOD     = "COD"
	MethodPrepaid = "PREPAID"
)

// Proof is the client-supplied evidence of a prepaid payment.
type Proof struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Signature string `json:"signature"`
}

// Verifier checks prepaid payment proofs against a shared server key.
type Verifier struct {
	ServerKey string
}

// Verify recomputes the proof signature over the reference and claimed
// amount and compares it in constant time. It does not check the amount
// against any order total; VerifyAmount does that once the total is known.
func (v Verifier) Verify(p Proof) error {
	if strings.TrimSpace(p.Reference) == "" {
		return ErrVerification
	}
	expected := v.computeSignature(p.Reference, p.Amount)
	provided := strings.TrimSpace(p.Signature)
	if expected == "" || provided == "" || !hmac.Equal([]byte(expected), []byte(provided)) {
		return ErrVerification
	}
	return nil
}

// VerifyAmount ensures the signed proof covers the order total exactly.
func (v Verifier) VerifyAmount(p Proof, total int64) error {
	if p.Amount != total {
		return ErrVerification
	}
	return nil
}

func (v Verifier) computeSignature(reference string, amount int64) string {
	key := strings.TrimSpace(v.ServerKey)
	if key == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(reference))
	mac.Write([]byte(strconv.FormatInt(amount, 10)))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}
