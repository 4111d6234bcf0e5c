package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func buildToken(t *testing.T, now time.Time, mutate func(*jwt.Builder)) jwt.Token {
	t.Helper()
	b := jwt.NewBuilder().
		Issuer("gerai").
		Audience([]string{"gerai-api"}).
		Subject("user-1").
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(time.Minute))
	if mutate != nil {
		mutate(b)
	}
	tok, err := b.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	return tok
}

func TestTokenValidator(t *testing.T) {
	now := time.Now()
	validator := TokenValidator{
		Issuer:    "gerai",
		Audience:  "gerai-api",
		ClockSkew: time.Second,
		Algorithm: jwa.HS256,
	}

	tests := []struct {
		name    string
		token   jwt.Token
		alg     jwa.SignatureAlgorithm
		wantErr bool
	}{
		{
			name:  "valid token",
			token: buildToken(t, now, nil),
			alg:   jwa.HS256,
		},
		{
			name: "issuer mismatch",
			token: buildToken(t, now, func(b *jwt.Builder) {
				b.Issuer("someone-else")
			}),
			alg:     jwa.HS256,
			wantErr: true,
		},
		{
			name: "expired",
			token: buildToken(t, now, func(b *jwt.Builder) {
				b.IssuedAt(now.Add(-2 * time.Hour))
				b.NotBefore(now.Add(-2 * time.Hour))
				b.Expiration(now.Add(-time.Minute))
			}),
			alg:     jwa.HS256,
			wantErr: true,
		},
		{
			name: "not yet valid",
			token: buildToken(t, now, func(b *jwt.Builder) {
				b.NotBefore(now.Add(5 * time.Minute))
				b.Expiration(now.Add(10 * time.Minute))
			}),
			alg:     jwa.HS256,
			wantErr: true,
		},
		{
			name:    "algorithm mismatch",
			token:   buildToken(t, now, nil),
			alg:     jwa.RS256,
			wantErr: true,
		},
		{
			name:    "missing algorithm",
			token:   buildToken(t, now, nil),
			alg:     "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.token, tt.alg, now)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("validate: %v", err)
			}
		})
	}
}

func TestSignatureAlgorithmFromHeader(t *testing.T) {
	now := time.Now()
	secret := []byte("validator-secret")
	signed, err := jwt.Sign(buildToken(t, now, nil), jwt.WithKey(jwa.HS256, secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	validator := TokenValidator{Algorithm: jwa.HS256}
	alg, err := validator.SignatureAlgorithm(string(signed))
	if err != nil {
		t.Fatalf("signature algorithm: %v", err)
	}
	if alg != jwa.HS256 {
		t.Fatalf("expected HS256, got %s", alg)
	}

	strict := TokenValidator{Algorithm: jwa.RS256}
	if _, err := strict.SignatureAlgorithm(string(signed)); err == nil {
		t.Fatal("expected rejection of a non-configured algorithm")
	}

	if _, err := validator.SignatureAlgorithm("not-a-token"); err == nil {
		t.Fatal("expected parse error for malformed token")
	}
}
