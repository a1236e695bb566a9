package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/ssh"
)

// ErrPassphraseRequired is returned when the SSH key used for sealing
// credentials is encrypted and no passphrase was supplied.
var ErrPassphraseRequired = errors.New("SSH key is encrypted - passphrase required")

// sealer encrypts small payloads with AES-256-GCM under a key derived from
// an SSH private key. The same SSH key always yields the same AES key.
type sealer struct {
	aesKey []byte
}

func newSealer(keyPath, passphrase string) (*sealer, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		if passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key: %w", err)
	}

	key, err := deriveKey(signer)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	return &sealer{aesKey: key}, nil
}

// deriveKey signs a fixed message and hashes the signature. Only
// deterministic signature schemes (ed25519, RSA PKCS#1 v1.5) give a stable key.
func deriveKey(signer ssh.Signer) ([]byte, error) {
	sig, err := signer.Sign(rand.Reader, []byte("logchat-credential-key-v1"))
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	sum := sha256.Sum256(sig.Blob)
	return sum[:], nil
}

// Seal returns nonce || ciphertext+tag.
func (s *sealer) Seal(plaintext []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *sealer) Open(sealed []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}
	n := gcm.NonceSize()
	if len(sealed) < n {
		return nil, fmt.Errorf("ciphertext too short")
	}
	plaintext, err := gcm.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

func (s *sealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.aesKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
