package token

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/zlib"

	"teamo/internal/domain"
)

const (
	// compressionThreshold is the serialized payload size (bytes) above
	// which deflate compression is attempted.
	compressionThreshold = 200

	gcmTagSize = 16
	// The deployment's shared IV is 16 bytes, not the 12-byte GCM default.
	// Changing this breaks every token already in circulation.
	gcmNonceSize = 16
)

// Sealed is the cipher engine's output before wire encoding: ciphertext and
// auth tag as standard base64, plus whether the plaintext was deflated
// before encryption.
type Sealed struct {
	CiphertextB64 string
	AuthTagB64    string
	Compressed    bool
}

// Engine encrypts and decrypts payloads with AES-256-GCM under a fixed
// key/iv pair. Payloads above compressionThreshold are deflated first when
// that actually shrinks them. Decryption falls back to the legacy
// AES-256-CBC mode used before authenticated tokens were introduced; the
// fallback is a compatibility shim for old tokens, not a security boundary.
type Engine struct {
	key    []byte
	iv     []byte
	aead   cipher.AEAD
	logger *slog.Logger
}

// NewEngine builds an Engine from 32-byte key and 16-byte iv material.
func NewEngine(key, iv []byte, logger *slog.Logger) (*Engine, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	if len(iv) != 16 {
		return nil, fmt.Errorf("encryption iv must be 16 bytes, got %d", len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, gcmNonceSize)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{key: key, iv: iv, aead: aead, logger: logger}, nil
}

// Encrypt seals plaintext and returns ciphertext and auth tag separately.
// Compression is adopted only when the deflated+base64 form is strictly
// shorter than the original; dense payloads keep their uncompressed form.
func (e *Engine) Encrypt(plaintext string) (Sealed, error) {
	data := plaintext
	compressed := false
	if len(data) > compressionThreshold {
		if deflated, err := deflateToBase64(data); err != nil {
			e.logger.Warn("payload compression failed, sending uncompressed", "err", err)
		} else if len(deflated) < len(data) {
			data = deflated
			compressed = true
		}
	}

	sealed := e.aead.Seal(nil, e.iv, []byte(data), nil)
	split := len(sealed) - gcmTagSize
	return Sealed{
		CiphertextB64: BytesToBase64(sealed[:split]),
		AuthTagB64:    BytesToBase64(sealed[split:]),
		Compressed:    compressed,
	}, nil
}

// Decrypt opens a Sealed value. GCM is attempted first; on authentication
// failure the ciphertext bytes are retried under legacy CBC. When the
// compressed flag is set the decrypted bytes are inflated; an inflate
// failure degrades to the raw decrypted string rather than erroring, since
// at that point authentication has already succeeded.
func (e *Engine) Decrypt(s Sealed) (string, error) {
	ciphertext, err := Base64ToBytes(s.CiphertextB64)
	if err != nil {
		return "", fmt.Errorf("ciphertext is not valid base64: %w", domain.ErrMalformedToken)
	}
	authTag, err := Base64ToBytes(s.AuthTagB64)
	if err != nil {
		return "", fmt.Errorf("auth tag is not valid base64: %w", domain.ErrMalformedToken)
	}

	combined := make([]byte, 0, len(ciphertext)+len(authTag))
	combined = append(combined, ciphertext...)
	combined = append(combined, authTag...)

	plain, gcmErr := e.aead.Open(nil, e.iv, combined, nil)
	if gcmErr != nil {
		legacy, cbcErr := e.decryptLegacyCBC(ciphertext)
		if cbcErr != nil {
			return "", fmt.Errorf("gcm: %v; cbc fallback: %v: %w", gcmErr, cbcErr, domain.ErrDecryptionFailed)
		}
		e.logger.Warn("token decrypted via legacy CBC fallback")
		plain = legacy
	}

	if s.Compressed {
		inflated, err := inflateFromBase64(string(plain))
		if err != nil {
			e.logger.Warn("decompression failed, returning raw decrypted payload", "err", err)
			return string(plain), nil
		}
		return inflated, nil
	}
	return string(plain), nil
}

// decryptLegacyCBC decrypts ciphertext minted before the authenticated mode
// existed: AES-256-CBC with PKCS#7 padding under the same key/iv.
func (e *Engine) decryptLegacyCBC(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a positive multiple of the block size", len(ciphertext))
	}
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, e.iv).CryptBlocks(plain, ciphertext)
	return pkcs7Unpad(plain, aes.BlockSize)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return b[:len(b)-n], nil
}

// deflateToBase64 compresses s with zlib deflate and encodes the result as
// base64. The base64 string, not the raw compressed bytes, becomes the
// plaintext handed to the cipher; the decrypting side reverses both layers.
func deflateToBase64(s string) (string, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return BytesToBase64(buf.Bytes()), nil
}

func inflateFromBase64(s string) (string, error) {
	raw, err := Base64ToBytes(s)
	if err != nil {
		return "", err
	}
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
