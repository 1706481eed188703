// Package webhook verifies signed event deliveries from the identity
// provider. The provider signs "<id>.<timestamp>.<payload>" with
// HMAC-SHA256 under a shared secret and sends the signature, the message id
// and the timestamp as headers alongside the body.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	headerID        = "webhook-id"
	headerTimestamp = "webhook-timestamp"
	headerSignature = "webhook-signature"

	secretPrefix = "whsec_"
)

// Verifier checks provider webhook signatures.
type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier builds a verifier from the shared secret. The secret may carry
// the provider's "whsec_" prefix; the remainder is base64.
func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	raw := strings.TrimPrefix(secret, secretPrefix)
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding webhook secret: %w", err)
	}
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &Verifier{key: key, tolerance: tolerance, now: time.Now}, nil
}

// Verify checks the signature headers against the raw request body. The
// timestamp must fall within the configured tolerance of the current time.
func (v *Verifier) Verify(header http.Header, payload []byte) error {
	msgID := header.Get(headerID)
	tsStr := header.Get(headerTimestamp)
	sigHeader := header.Get(headerSignature)
	if msgID == "" || tsStr == "" || sigHeader == "" {
		return fmt.Errorf("missing webhook signature headers")
	}

	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid webhook timestamp: %w", err)
	}
	delta := v.now().Sub(time.Unix(ts, 0))
	if delta > v.tolerance || delta < -v.tolerance {
		return fmt.Errorf("webhook timestamp outside tolerance")
	}

	expected := v.sign(msgID, tsStr, payload)

	// The signature header may list several space-separated versioned
	// signatures ("v1,<base64>"). Any match accepts the delivery.
	for _, part := range strings.Split(sigHeader, " ") {
		sig, ok := strings.CutPrefix(part, "v1,")
		if !ok {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if subtle.ConstantTimeCompare(decoded, expected) == 1 {
			return nil
		}
	}
	return fmt.Errorf("no matching webhook signature")
}

func (v *Verifier) sign(msgID, timestamp string, payload []byte) []byte {
	mac := hmac.New(sha256.New, v.key)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}
