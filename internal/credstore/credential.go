package credstore

import (
	"crypto/rand"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/watson-app/watson/internal/werr"
)

func encrypt(plaintext, key, nonce, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, werr.Wrap(werr.KindEncryption, err)
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

func decrypt(ciphertext, key, nonce, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, werr.Wrap(werr.KindDecryption, err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, werr.Wrap(werr.KindDecryption, err)
	}
	return plaintext, nil
}

// Credential is a single stored identity: a username/secret pair bound
// to a Service, encrypted at rest under the Manager's master key.
// Grounded on original_source/common/src/auth/credentials.rs's
// Credential/CredentialManager. For a Google credential, Secret holds
// the long-lived OAuth refresh token and AccessToken/ExpiresAt hold the
// short-lived access token state the provider refreshes in place
// (original_source/common/src/calendar/google/{auth,fetch}.rs's
// CredentialData::OAuth, folded into the single Credential shape
// instead of a separate sum-type variant — see DESIGN.md).
type Credential struct {
	ID       string  `json:"id"`
	Service  Service `json:"service"`
	Username Secret  `json:"username"`
	Secret   Secret  `json:"secret"`
	Label    string  `json:"label"`

	AccessToken *Secret `json:"access_token,omitempty"`
	ExpiresAt   int64   `json:"expires_at,omitempty"`
}

// New builds a fresh, decrypted Credential with a random UUID.
func New(username, secret string, service Service, label string) Credential {
	return Credential{
		ID:       uuid.NewString(),
		Service:  service,
		Username: Decrypted(username),
		Secret:   Decrypted(secret),
		Label:    label,
	}
}

// NewOAuth builds a fresh Google-style credential: email is stored as
// the (plaintext-once-locked) Username, refreshToken as Secret, and
// accessToken/expiresAt as the short-lived state Refresh renews.
func NewOAuth(email, refreshToken, accessToken string, expiresAt int64, label string) Credential {
	token := Decrypted(accessToken)
	return Credential{
		ID:          uuid.NewString(),
		Service:     ServiceGoogle,
		Username:    Decrypted(email),
		Secret:      Decrypted(refreshToken),
		AccessToken: &token,
		ExpiresAt:   expiresAt,
		Label:       label,
	}
}

// aad returns the additional-authenticated-data binding for this
// credential's fields: "{service}:{id}" (spec.md §4.4).
func (c *Credential) aad() []byte {
	return []byte(c.Service.String() + ":" + c.ID)
}

// Unlock decrypts Username and Secret in place using key, leaving
// already-decrypted fields untouched.
func (c *Credential) Unlock(key []byte) error {
	aad := c.aad()

	if c.Username.locked {
		plain, err := decrypt(c.Username.ciphertext, key, c.Username.nonce[:], aad)
		if err != nil {
			return err
		}
		c.Username = Secret{plaintext: plain}
	}

	if c.Secret.locked {
		plain, err := decrypt(c.Secret.ciphertext, key, c.Secret.nonce[:], aad)
		if err != nil {
			return err
		}
		c.Secret = Secret{plaintext: plain}
	}

	if c.AccessToken != nil && c.AccessToken.locked {
		plain, err := decrypt(c.AccessToken.ciphertext, key, c.AccessToken.nonce[:], aad)
		if err != nil {
			return err
		}
		*c.AccessToken = Secret{plaintext: plain}
	}

	return nil
}

// Lock encrypts Username and Secret in place using key, zeroing the
// plaintext bytes once the ciphertext is produced.
func (c *Credential) Lock(key []byte) error {
	aad := c.aad()

	if err := lockField(&c.Username, key, aad); err != nil {
		return err
	}
	if err := lockField(&c.Secret, key, aad); err != nil {
		return err
	}
	if c.AccessToken != nil {
		if err := lockField(c.AccessToken, key, aad); err != nil {
			return err
		}
	}
	return nil
}

func lockField(field *Secret, key, aad []byte) error {
	if field.locked {
		return nil
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return werr.Wrap(werr.KindEncryption, err)
	}

	ciphertext, err := encrypt(field.plaintext, key, nonce[:], aad)
	if err != nil {
		return err
	}

	secureZero(field.plaintext)
	*field = Secret{locked: true, nonce: nonce, ciphertext: ciphertext}
	return nil
}
