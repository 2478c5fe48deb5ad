package qr

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"

	apperrors "kinogate/internal/errors"
)

// Wire format of an admission token: "<ivHex>:<cipherHex>". The decrypted
// payload is a JSON object {"tid": "<ticketId>"}.

// scrypt parameters for deriving the AES key from the configured secret.
// The salt is fixed: tokens must stay decodable across restarts, and the
// secret is a server-side value, not a user password.
const (
	scryptN   = 16384
	scryptR   = 8
	scryptP   = 1
	keyLen    = 32
	fixedSalt = "kinogate-qr-salt"
)

type Config struct {
	Secret string
}

// Codec encrypts and decrypts admission tokens. Both directions derive the
// key from the same secret; the key is derived once at construction since
// scrypt is deliberately slow. A Codec is stateless after construction and
// safe for concurrent use.
type Codec struct {
	key []byte
}

// NewCodec derives the encryption key from the configured secret.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("qr secret is empty")
	}
	key, err := scrypt.Key([]byte(cfg.Secret), []byte(fixedSalt), scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive qr key: %w", err)
	}
	return &Codec{key: key}, nil
}

// Payload is the ticket identity carried inside an admission token.
type Payload struct {
	TicketID string `json:"tid"`
}

// Encode serializes the payload, encrypts it under a fresh random IV and
// returns the token as "<ivHex>:<cipherHex>".
func (c *Codec) Encode(p Payload) (string, error) {
	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal qr payload: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decode reverses Encode. Every failure mode (malformed token, corrupt IV
// or ciphertext, bad padding, bad JSON) returns ErrInvalidQR so that
// callers cannot distinguish crypto internals.
func (c *Codec) Decode(token string) (Payload, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return Payload{}, apperrors.ErrInvalidQR
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return Payload{}, apperrors.ErrInvalidQR
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return Payload{}, apperrors.ErrInvalidQR
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return Payload{}, apperrors.ErrInvalidQR
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return Payload{}, apperrors.ErrInvalidQR
	}

	var p Payload
	if err := json.Unmarshal(unpadded, &p); err != nil {
		return Payload{}, apperrors.ErrInvalidQR
	}
	if p.TicketID == "" {
		return Payload{}, apperrors.ErrInvalidQR
	}
	return p, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, fmt.Errorf("invalid padding byte")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-padding], nil
}
