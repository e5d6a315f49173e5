// Package crypto cifra secretos en reposo (contraseñas de buzón, API keys de IA)
// con NaCl secretbox (XSalsa20-Poly1305). El nonce aleatorio va prefijado al texto cifrado
// y el resultado se guarda en base64.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrNoKey se devuelve cuando no hay CRYPTO_SECRET configurado.
var ErrNoKey = errors.New("crypto: clave no configurada")

// Box cifra y descifra con una clave fija de 32 bytes.
type Box struct {
	key *[32]byte
}

// NewBox construye el cifrador. key nil = Box deshabilitado (Seal/Open devuelven ErrNoKey).
func NewBox(key []byte) (*Box, error) {
	if key == nil {
		return &Box{}, nil
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("crypto: la clave debe tener 32 bytes, tiene %d", len(key))
	}
	var k [32]byte
	copy(k[:], key)
	return &Box{key: &k}, nil
}

// Enabled indica si hay clave.
func (b *Box) Enabled() bool { return b != nil && b.key != nil }

// Seal cifra plaintext.
func (b *Box) Seal(plaintext string) (string, error) {
	if !b.Enabled() {
		return "", ErrNoKey
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("crypto: generar nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, b.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open descifra un valor producido por Seal.
func (b *Box) Open(encoded string) (string, error) {
	if !b.Enabled() {
		return "", ErrNoKey
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("crypto: base64: %w", err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", errors.New("crypto: texto cifrado demasiado corto")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, b.key)
	if !ok {
		return "", errors.New("crypto: no se pudo descifrar (clave incorrecta o dato alterado)")
	}
	return string(plain), nil
}
