package cipher

// Package cipher provides the reversible byte transforms used to protect the
// client's binary data files. Callers treat a Cipher as opaque: the recipe
// loader only ever asks it to turn an encrypted block back into plain bytes.

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blowfish"
)

// ErrBlockSize is returned when a block cipher is handed a buffer that is not
// a whole number of blocks.
var ErrBlockSize = errors.New("cipher: input is not a multiple of the block size")

// Cipher is a deterministic, reversible transform. Decrypt(Encrypt(x)) == x.
// Implementations never modify their input.
type Cipher interface {
	Encrypt(src []byte) ([]byte, error)
	Decrypt(src []byte) ([]byte, error)
}

// buxKey is the repeating XOR key used by the client's data files.
var buxKey = [3]byte{0xFC, 0xCF, 0xAB}

// Bux is the client's 3-byte rolling XOR. It is its own inverse.
type Bux struct{}

// Encrypt applies the XOR key.
func (Bux) Encrypt(src []byte) ([]byte, error) {
	return buxConvert(src), nil
}

// Decrypt applies the XOR key.
func (Bux) Decrypt(src []byte) ([]byte, error) {
	return buxConvert(src), nil
}

func buxConvert(src []byte) []byte {
	out := make([]byte, len(src))
	for i, b := range src {
		out[i] = b ^ buxKey[i%len(buxKey)]
	}
	return out
}

// Blowfish encrypts fixed 8-byte blocks in ECB mode.
type Blowfish struct {
	c *blowfish.Cipher
}

// NewBlowfish creates a Blowfish transform for the given key (1 to 56 bytes).
func NewBlowfish(key []byte) (*Blowfish, error) {
	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("blowfish init: %w", err)
	}
	return &Blowfish{c: c}, nil
}

// Encrypt encrypts every block of src.
func (b *Blowfish) Encrypt(src []byte) ([]byte, error) {
	if len(src)%blowfish.BlockSize != 0 {
		return nil, ErrBlockSize
	}
	out := make([]byte, len(src))
	for off := 0; off < len(src); off += blowfish.BlockSize {
		b.c.Encrypt(out[off:off+blowfish.BlockSize], src[off:off+blowfish.BlockSize])
	}
	return out, nil
}

// Decrypt decrypts every block of src.
func (b *Blowfish) Decrypt(src []byte) ([]byte, error) {
	if len(src)%blowfish.BlockSize != 0 {
		return nil, ErrBlockSize
	}
	out := make([]byte, len(src))
	for off := 0; off < len(src); off += blowfish.BlockSize {
		b.c.Decrypt(out[off:off+blowfish.BlockSize], src[off:off+blowfish.BlockSize])
	}
	return out, nil
}

// New returns the cipher registered under name. An empty name selects Bux.
func New(name, key string) (Cipher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bux":
		return Bux{}, nil
	case "blowfish":
		if key == "" {
			return nil, errors.New("cipher: blowfish requires a key")
		}
		return NewBlowfish([]byte(key))
	default:
		return nil, fmt.Errorf("cipher: unknown cipher %q", name)
	}
}
