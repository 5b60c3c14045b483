package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSignature    = errors.New("missing signature header")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrSecretNotConfigured = errors.New("webhook secret not configured")
)

// Verifier authenticates a delivery from its exact raw body bytes and the
// provider-supplied signature header.
type Verifier interface {
	Verify(body []byte, signature string) error
}

// HMACVerifier implements the scheme Vital and Terra share: hex-encoded
// HMAC-SHA256 over the raw body. Malformed input is never an error
// distinct from an invalid signature.
type HMACVerifier struct {
	secret string
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: secret}
}

func (v *HMACVerifier) Verify(body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if v.secret == "" {
		return ErrSecretNotConfigured
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// StripeVerifier implements Stripe's signed-payload scheme: the header
// carries "t=<unix>,v1=<hex hmac>" and the MAC covers "<t>.<body>". The
// timestamp is bounded by Tolerance to blunt replay.
type StripeVerifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewStripeVerifier(secret string, tolerance time.Duration) *StripeVerifier {
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &StripeVerifier{secret: secret, tolerance: tolerance, now: time.Now}
}

func (v *StripeVerifier) Verify(body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if v.secret == "" {
		return ErrSecretNotConfigured
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	fmt.Fprintf(mac, "%s.", timestamp)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}
