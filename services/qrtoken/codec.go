// Package qrtoken decodes, signs and verifies the check-in payload carried by
// member QR codes.
//
// Wire format:
//
//	{"user_id": 42, "payment_id": 7, "timestamp": 1700000000, "hash": "<hex>"}
//
// The hash is the hex HMAC-SHA256, keyed by the shared secret, of
// "<user_id>:<payment_id>:<timestamp>". Sign emits lowercase; either case
// verifies since the comparison is on the decoded MAC.
package qrtoken

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultMaxAge is the validity window applied when none is configured.
const DefaultMaxAge = 300 * time.Second

var (
	ErrMalformedToken = errors.New("malformed check-in token")
	ErrBadSignature   = errors.New("check-in token signature mismatch")
	ErrExpired        = errors.New("check-in token expired")
)

// Token is a decoded check-in payload. It is never persisted.
type Token struct {
	UserID    int64  `json:"user_id"`
	PaymentID int64  `json:"payment_id"`
	Timestamp int64  `json:"timestamp"`
	Hash      string `json:"hash"`
}

// IssuedAt returns the minting instant.
func (t Token) IssuedAt() time.Time {
	return time.Unix(t.Timestamp, 0)
}

// wireToken uses pointers so absent fields can be told apart from zeros.
type wireToken struct {
	UserID    *int64  `json:"user_id"`
	PaymentID *int64  `json:"payment_id"`
	Timestamp *int64  `json:"timestamp"`
	Hash      *string `json:"hash"`
}

// Decode parses raw into a Token. It does not check the signature or age.
func Decode(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Token{}, fmt.Errorf("%w: empty payload", ErrMalformedToken)
	}

	var w wireToken
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	switch {
	case w.UserID == nil:
		return Token{}, fmt.Errorf("%w: user_id is required", ErrMalformedToken)
	case w.PaymentID == nil:
		return Token{}, fmt.Errorf("%w: payment_id is required", ErrMalformedToken)
	case w.Timestamp == nil:
		return Token{}, fmt.Errorf("%w: timestamp is required", ErrMalformedToken)
	case w.Hash == nil || *w.Hash == "":
		return Token{}, fmt.Errorf("%w: hash is required", ErrMalformedToken)
	case !isHexDigest(*w.Hash):
		return Token{}, fmt.Errorf("%w: hash must be %d hex characters", ErrMalformedToken, hex.EncodedLen(sha256.Size))
	}
	if *w.UserID <= 0 || *w.PaymentID <= 0 || *w.Timestamp <= 0 {
		return Token{}, fmt.Errorf("%w: identifiers and timestamp must be positive", ErrMalformedToken)
	}

	return Token{
		UserID:    *w.UserID,
		PaymentID: *w.PaymentID,
		Timestamp: *w.Timestamp,
		Hash:      *w.Hash,
	}, nil
}

func isHexDigest(h string) bool {
	b, err := hex.DecodeString(h)
	return err == nil && len(b) == sha256.Size
}

// Encode renders tok in the wire format.
func Encode(tok Token) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(tok); err != nil {
		return "", fmt.Errorf("encode check-in token: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Sign computes the hex signature for the triple.
func Sign(secret []byte, userID, paymentID, issuedAt int64) string {
	return hex.EncodeToString(digest(secret, userID, paymentID, issuedAt))
}

func digest(secret []byte, userID, paymentID, issuedAt int64) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(signingInput(userID, paymentID, issuedAt)))
	return mac.Sum(nil)
}

func signingInput(userID, paymentID, issuedAt int64) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(userID, 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(paymentID, 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(issuedAt, 10))
	return b.String()
}

// Verify checks tok against secret at nowSeconds with a closed validity
// window [0, maxAgeSeconds]. Both the signature and the age are always
// evaluated; a bad signature is reported ahead of expiry.
func Verify(tok Token, secret []byte, nowSeconds, maxAgeSeconds int64) error {
	return verify(tok, secret, nowSeconds, maxAgeSeconds, 0)
}

func verify(tok Token, secret []byte, nowSeconds, maxAgeSeconds, skewSeconds int64) error {
	got, err := hex.DecodeString(tok.Hash)
	sigOK := err == nil && hmac.Equal(digest(secret, tok.UserID, tok.PaymentID, tok.Timestamp), got)

	var ageErr error
	age := nowSeconds - tok.Timestamp
	switch {
	case age > maxAgeSeconds:
		ageErr = fmt.Errorf("%w: issued %ds ago, window is %ds", ErrExpired, age, maxAgeSeconds)
	case age < -skewSeconds:
		ageErr = fmt.Errorf("%w: issued %ds in the future", ErrExpired, -age)
	}

	if !sigOK {
		return ErrBadSignature
	}
	return ageErr
}

// Codec binds the process-wide secret and validity window.
type Codec struct {
	secret []byte
	maxAge time.Duration
	skew   time.Duration
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxAge sets the validity window. Non-positive values are ignored.
func WithMaxAge(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithClockSkew tolerates tokens minted up to d in the future.
func WithClockSkew(d time.Duration) Option {
	return func(c *Codec) {
		if d >= 0 {
			c.skew = d
		}
	}
}

// NewCodec copies secret; later changes to the caller's slice have no effect.
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("check-in secret is required")
	}
	c := &Codec{
		secret: append([]byte(nil), secret...),
		maxAge: DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) MaxAge() time.Duration {
	return c.maxAge
}

// Decode is a convenience wrapper over the package-level Decode.
func (c *Codec) Decode(raw string) (Token, error) {
	return Decode(raw)
}

// Verify checks tok at now using the codec's secret, window and skew.
func (c *Codec) Verify(tok Token, now time.Time) error {
	return verify(tok, c.secret, now.Unix(), int64(c.maxAge/time.Second), int64(c.skew/time.Second))
}

// Mint produces a signed token for the member and payment issued at now.
func (c *Codec) Mint(userID, paymentID int64, now time.Time) Token {
	issuedAt := now.Unix()
	return Token{
		UserID:    userID,
		PaymentID: paymentID,
		Timestamp: issuedAt,
		Hash:      Sign(c.secret, userID, paymentID, issuedAt),
	}
}
