package qr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "kinogate/internal/errors"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return c
}

func TestCodecRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	payload := Payload{TicketID: "9f2d1c1e-5b1a-4a7e-9c33-52f8f7a2d001"}
	token, err := c.Encode(payload)
	assert.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{32}:[0-9a-f]+$`, token)

	decoded, err := c.Decode(token)
	assert.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestCodecRandomIV(t *testing.T) {
	c := newTestCodec(t)

	payload := Payload{TicketID: "ticket-1"}
	first, err := c.Encode(payload)
	assert.NoError(t, err)
	second, err := c.Encode(payload)
	assert.NoError(t, err)

	// A fresh IV per encryption means identical payloads never produce
	// identical tokens.
	assert.NotEqual(t, first, second)
}

func TestCodecTamperedCiphertext(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Encode(Payload{TicketID: "ticket-1"})
	assert.NoError(t, err)

	parts := strings.Split(token, ":")
	cipherHex := parts[1]
	flipped := "0"
	if cipherHex[len(cipherHex)-1] == '0' {
		flipped = "1"
	}
	tampered := parts[0] + ":" + cipherHex[:len(cipherHex)-1] + flipped

	_, err = c.Decode(tampered)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQR)
}

func TestCodecMalformedTokens(t *testing.T) {
	c := newTestCodec(t)

	for _, token := range []string{
		"",
		"not-a-token",
		"deadbeef",
		"zz:zz",
		"deadbeef:deadbeef",          // iv too short
		strings.Repeat("ab", 16),     // no separator
		strings.Repeat("ab", 16) + ":" + "abcd", // ciphertext not block aligned
	} {
		_, err := c.Decode(token)
		assert.ErrorIs(t, err, apperrors.ErrInvalidQR, "token %q", token)
	}
}

func TestCodecWrongSecret(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec(Config{Secret: "different-secret"})
	assert.NoError(t, err)

	token, err := c.Encode(Payload{TicketID: "ticket-1"})
	assert.NoError(t, err)

	_, err = other.Decode(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQR)
}

func TestNewCodecEmptySecret(t *testing.T) {
	_, err := NewCodec(Config{})
	assert.Error(t, err)
}
