package tokens

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// KeyPair is the Ed25519 key pair shared by every signer. It is loaded once
// at startup and never mutated.
type KeyPair struct {
	Private ed25519.PrivateKey
	Public  ed25519.PublicKey
}

func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate ed25519: %w", err)
	}
	return KeyPair{Private: priv, Public: pub}, nil
}

// LoadKeyPair parses a PKCS#8 private key and an optional PKIX public key.
// When the public key is given it must belong to the private key.
func LoadKeyPair(privatePEM, publicPEM []byte) (KeyPair, error) {
	raw, err := jwt.ParseEdPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: private key: %w", ErrKey, err)
	}
	priv, ok := raw.(ed25519.PrivateKey)
	if !ok {
		return KeyPair{}, fmt.Errorf("%w: private key is not ed25519", ErrKey)
	}
	derived := priv.Public().(ed25519.PublicKey)

	if len(publicPEM) == 0 {
		return KeyPair{Private: priv, Public: derived}, nil
	}

	rawPub, err := jwt.ParseEdPublicKeyFromPEM(publicPEM)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: public key: %w", ErrKey, err)
	}
	pub, ok := rawPub.(ed25519.PublicKey)
	if !ok {
		return KeyPair{}, fmt.Errorf("%w: public key is not ed25519", ErrKey)
	}
	if !pub.Equal(derived) {
		return KeyPair{}, fmt.Errorf("%w: public key does not match private key", ErrKey)
	}
	return KeyPair{Private: priv, Public: pub}, nil
}

func LoadKeyPairFiles(privatePath, publicPath string) (KeyPair, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return KeyPair{}, fmt.Errorf("read signing key: %w", err)
	}
	var publicPEM []byte
	if publicPath != "" {
		publicPEM, err = os.ReadFile(publicPath)
		if err != nil {
			return KeyPair{}, fmt.Errorf("read verify key: %w", err)
		}
	}
	return LoadKeyPair(privatePEM, publicPEM)
}
