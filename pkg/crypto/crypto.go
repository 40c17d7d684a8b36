// Package crypto provides the ECDSA P-256 helpers used to sign and verify
// sum responses exchanged between calc nodes.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// GeneratePrivateKey generates a new ECDSA private key
func GeneratePrivateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// LoadPrivateKeyFromHex loads an ECDSA private key from hex string
func LoadPrivateKeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")

	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex key: %v", err)
	}

	privateKey := new(ecdsa.PrivateKey)
	privateKey.Curve = elliptic.P256()
	privateKey.D = new(big.Int).SetBytes(keyBytes)
	privateKey.PublicKey.X, privateKey.PublicKey.Y = privateKey.Curve.ScalarBaseMult(keyBytes)

	return privateKey, nil
}

// PrivateKeyToHex converts a private key to hex string
func PrivateKeyToHex(privateKey *ecdsa.PrivateKey) string {
	return hex.EncodeToString(privateKey.D.Bytes())
}

// PublicKeyToHex converts a public key to a 64-byte hex string (X || Y,
// each padded to 32 bytes).
func PublicKeyToHex(publicKey *ecdsa.PublicKey) string {
	x := publicKey.X.Bytes()
	y := publicKey.Y.Bytes()

	for len(x) < 32 {
		x = append([]byte{0}, x...)
	}
	for len(y) < 32 {
		y = append([]byte{0}, y...)
	}

	return hex.EncodeToString(append(x, y...))
}

// PublicKeyFromHex parses a public key from the hex form produced by
// PublicKeyToHex.
func PublicKeyFromHex(hexKey string) (*ecdsa.PublicKey, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")

	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex key: %v", err)
	}
	if len(keyBytes) != 64 {
		return nil, fmt.Errorf("invalid public key length: %d", len(keyBytes))
	}

	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(keyBytes[:32]),
		Y:     new(big.Int).SetBytes(keyBytes[32:]),
	}, nil
}

// SignData signs data with ECDSA private key
func SignData(privateKey *ecdsa.PrivateKey, data []byte) (string, error) {
	hash := sha256.Sum256(data)

	r, s, err := ecdsa.Sign(rand.Reader, privateKey, hash[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign data: %v", err)
	}

	// r and s padded to 32 bytes each so the signature length is stable
	rb := r.Bytes()
	sb := s.Bytes()
	for len(rb) < 32 {
		rb = append([]byte{0}, rb...)
	}
	for len(sb) < 32 {
		sb = append([]byte{0}, sb...)
	}
	return hex.EncodeToString(append(rb, sb...)), nil
}

// VerifySignature verifies ECDSA signature
func VerifySignature(publicKey *ecdsa.PublicKey, data []byte, signature string) (bool, error) {
	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %v", err)
	}
	if len(sigBytes) != 64 {
		return false, fmt.Errorf("invalid signature length: %d", len(sigBytes))
	}

	r := new(big.Int).SetBytes(sigBytes[:32])
	s := new(big.Int).SetBytes(sigBytes[32:])
	hash := sha256.Sum256(data)

	return ecdsa.Verify(publicKey, hash[:], r, s), nil
}
