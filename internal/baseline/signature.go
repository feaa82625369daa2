package baseline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

var ErrSignature = errors.New("policy signature verification failed")

// Verifier checks detached OpenPGP signatures over policy files.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier loads a public keyring, armored or binary.
func NewVerifier(keyringPath string) (*Verifier, error) {
	f, err := os.Open(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		if _, seekErr := f.Seek(0, 0); seekErr != nil {
			return nil, fmt.Errorf("reset keyring: %w", seekErr)
		}
		entities, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return nil, fmt.Errorf("read keyring %s: %w", keyringPath, err)
		}
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("no keys found in %s", keyringPath)
	}
	return &Verifier{keyring: entities}, nil
}

// SignaturePath returns the detached signature next to dataPath, preferring
// "<file>.asc" over "<file>.sig". It returns "" when neither exists.
func SignaturePath(dataPath string) string {
	for _, ext := range []string{".asc", ".sig"} {
		if _, err := os.Stat(dataPath + ext); err == nil {
			return dataPath + ext
		}
	}
	return ""
}

// VerifyFile checks sigPath against dataPath. Signatures ending in ".asc" are
// read as armored.
func (v *Verifier) VerifyFile(dataPath, sigPath string) error {
	data, err := os.ReadFile(dataPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dataPath, err)
	}
	return v.Verify(dataPath, data, sigPath)
}

// Verify checks sigPath against data, the contents of the file called name.
// Callers parse the same bytes they verified.
func (v *Verifier) Verify(name string, data []byte, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("%w: empty keyring", ErrSignature)
	}
	if sigPath == "" {
		return fmt.Errorf("%w: no signature found for %s", ErrSignature, name)
	}

	sig, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("open signature %s: %w", sigPath, err)
	}
	defer sig.Close()

	if strings.HasSuffix(sigPath, ".asc") {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(data), sig, nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, bytes.NewReader(data), sig, nil)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSignature, name, err)
	}
	return nil
}
