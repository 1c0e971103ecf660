package signer

import (
	"bytes"
	"crypto"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/rpmtool/rpm-tool/internal/config"
)

// GPGSigner signs repomd.xml with a loaded private key.
type GPGSigner struct {
	entity *openpgp.Entity
}

// NewGPGSignerFromConfig builds a GPGSigner from a repository's configured
// signing key, falling back to sc's defaults when keyPath/passphrase are
// empty (the CLI passes --gpg-key/--gpg-passphrase through those two
// parameters and only consults sc when a flag was left unset). The
// passphrase itself is never stored in the config file: sc.PassphraseEnv
// names an environment variable rpm-tool reads it from at signer
// construction time.
func NewGPGSignerFromConfig(sc config.SignConfig, keyPath, passphrase string) (*GPGSigner, error) {
	if keyPath == "" {
		keyPath = sc.KeyPath
	}
	if passphrase == "" && sc.PassphraseEnv != "" {
		passphrase = os.Getenv(sc.PassphraseEnv)
	}
	return NewGPGSigner(keyPath, passphrase)
}

// NewGPGSigner loads a private key (armored or binary) from keyPath,
// decrypting it with passphrase if it is encrypted.
func NewGPGSigner(keyPath, passphrase string) (*GPGSigner, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("key path is empty")
	}

	keyFile, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer keyFile.Close()

	entityList, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		keyFile.Seek(0, 0)
		entityList, err = openpgp.ReadKeyRing(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entityList) == 0 {
		return nil, fmt.Errorf("no keys found in key file")
	}

	entity := entityList[0]

	if passphrase != "" {
		if entity.PrivateKey != nil && entity.PrivateKey.Encrypted {
			if err := entity.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
				return nil, fmt.Errorf("failed to decrypt private key: %w", err)
			}
		}
		for _, subkey := range entity.Subkeys {
			if subkey.PrivateKey != nil && subkey.PrivateKey.Encrypted {
				if err := subkey.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
					return nil, fmt.Errorf("failed to decrypt subkey: %w", err)
				}
			}
		}
	}

	return &GPGSigner{entity: entity}, nil
}

// SignDetached produces an armored detached signature over data, written
// to repodata/repomd.xml.asc next to repomd.xml.
func (s *GPGSigner) SignDetached(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), &packet.Config{
		DefaultHash: crypto.SHA512,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create detached signature: %w", err)
	}
	return buf.Bytes(), nil
}
