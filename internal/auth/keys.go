// keys.go generates and stores the key pairs used to sign dashboard API tokens.
//
// Keys are stored as JWK sets. The private set holds the signing key and is read by the token minter
// (eudrctl and SignedTokenSource). The public set is the JWKS the gateway verifies tokens against,
// either as a local file (JWKS_FILE) or published at a JWKS endpoint (JWKS_URL).
//
// Ed25519 is the default key type. RSA keys (2048 bits or more) are supported for identity providers
// that only issue RS256 tokens.

package auth

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// KeyType is the type of a generated signing key
type KeyType string

const (
	KeyTypeEd25519 KeyType = "ed25519"
	KeyTypeRSA     KeyType = "rsa"
)

// GenerateSigningKey creates a private JWK of the requested type.
// The kid is derived from the SHA-256 thumbprint of the public key.
// bits is ignored for Ed25519 keys.
func GenerateSigningKey(keyType KeyType, bits int) (jwk.Key, error) {
	var raw any

	switch keyType {
	case KeyTypeEd25519:
		_, privateKey, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate key pair: %w", err)
		}
		raw = privateKey
	case KeyTypeRSA:
		if bits < 2048 {
			return nil, fmt.Errorf("key size must be at least 2048 bits")
		}
		if bits%256 != 0 {
			return nil, fmt.Errorf("key size should be a multiple of 256")
		}
		privateKey, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, fmt.Errorf("failed to generate key pair: %w", err)
		}
		raw = privateKey
	default:
		return nil, fmt.Errorf("unsupported key type %q (expected ed25519 or rsa)", keyType)
	}

	key, err := jwk.Import(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK: %w", err)
	}

	return signingKey(key)
}

// ImportPEMSigningKey converts a PEM encoded Ed25519 or RSA private key (PKCS#8 or PKCS#1)
// to a signing key with the same kid, alg and use as a generated key.
// It lets an existing identity provider key be used to mint tokens.
func ImportPEMSigningKey(pemData []byte) (jwk.Key, error) {
	key, err := jwk.ParseKey(pemData, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PEM key: %w", err)
	}

	if isPrivate, err := jwk.IsPrivateKey(key); err != nil || !isPrivate {
		return nil, fmt.Errorf("PEM data does not contain a private key")
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("failed to export key: %w", err)
	}
	if rsaKey, ok := raw.(*rsa.PrivateKey); ok && rsaKey.N.BitLen() < 2048 {
		return nil, fmt.Errorf("RSA key size must be at least 2048 bits, got %d", rsaKey.N.BitLen())
	}

	return signingKey(key)
}

// signingKey sets the kid, alg and use of a private key
func signingKey(key jwk.Key) (jwk.Key, error) {
	alg, err := signatureAlgorithm(key)
	if err != nil {
		return nil, err
	}

	keyID, err := KeyID(key)
	if err != nil {
		return nil, err
	}

	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}
	if err := key.Set(jwk.AlgorithmKey, alg); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}
	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, fmt.Errorf("failed to set key usage: %w", err)
	}

	return key, nil
}

// KeyID returns the first 16 characters of the hex-encoded RFC 7638 thumbprint of the key.
// Private and public halves of a key pair have the same key ID.
func KeyID(key jwk.Key) (string, error) {
	if key == nil {
		return "", fmt.Errorf("key is nil")
	}

	public, err := key.PublicKey()
	if err != nil {
		return "", fmt.Errorf("failed to get public key: %w", err)
	}

	thumbprint, err := public.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to generate thumbprint: %w", err)
	}

	return fmt.Sprintf("%x", thumbprint)[:16], nil
}

// SaveKeyPair writes the private key set (mode 0600) and the public JWKS (mode 0644) to baseDir.
func SaveKeyPair(privateKey jwk.Key, baseDir, privateFilename, publicFilename string) error {
	public, err := privateKey.PublicKey()
	if err != nil {
		return fmt.Errorf("failed to get public key: %w", err)
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	if err := writeKeySet(root, privateKey, privateFilename, 0600); err != nil {
		return err
	}
	return writeKeySet(root, public, publicFilename, 0644)
}

func writeKeySet(root *os.Root, key jwk.Key, filename string, perm os.FileMode) error {
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return fmt.Errorf("failed to add key to set: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JWK set: %w", err)
	}

	if err := root.WriteFile(filename, jsonBytes, perm); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	return nil
}

// ReadSigningKey reads a private key written by SaveKeyPair (a JWK set containing exactly one private key
// with a kid, or a single JWK).
func ReadSigningKey(path string) (jwk.Key, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	if set.Len() != 1 {
		return nil, fmt.Errorf("signing key file must contain exactly one key, found %d", set.Len())
	}

	key, _ := set.Key(0)

	if isPrivate, err := jwk.IsPrivateKey(key); err != nil || !isPrivate {
		return nil, fmt.Errorf("signing key file does not contain a private key")
	}

	if keyID, ok := key.KeyID(); !ok || keyID == "" {
		return nil, fmt.Errorf("signing key is missing kid")
	}

	if _, err := signatureAlgorithm(key); err != nil {
		return nil, err
	}

	return key, nil
}

// ReadPublicKeySet reads a JWKS file. Every key must be an RSA or Ed25519 public key with a kid.
func ReadPublicKeySet(path string) (jwk.Set, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS file: %w", err)
	}

	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS file: %w", err)
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("JWKS file %s contains no keys", path)
	}

	for i := range set.Len() {
		key, _ := set.Key(i)

		if keyID, ok := key.KeyID(); !ok || keyID == "" {
			return nil, fmt.Errorf("key %d in %s is missing kid", i, path)
		}
		if isPrivate, err := jwk.IsPrivateKey(key); err == nil && isPrivate {
			return nil, fmt.Errorf("JWKS file %s contains a private key", path)
		}
		if _, err := signatureAlgorithm(key); err != nil {
			return nil, fmt.Errorf("key %d in %s: %w", i, path, err)
		}
	}

	return set, nil
}

// signatureAlgorithm returns the algorithm used to sign with the key: EdDSA for Ed25519 keys and RS256 for RSA keys
func signatureAlgorithm(key jwk.Key) (jwa.SignatureAlgorithm, error) {
	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return jwa.EmptySignatureAlgorithm(), fmt.Errorf("failed to export key: %w", err)
	}

	switch v := raw.(type) {
	case ed25519.PrivateKey, ed25519.PublicKey:
		return jwa.EdDSA(), nil
	case *rsa.PrivateKey, *rsa.PublicKey:
		return jwa.RS256(), nil
	default:
		return jwa.EmptySignatureAlgorithm(), fmt.Errorf("unsupported key type %T (expected RSA or Ed25519)", v)
	}
}
