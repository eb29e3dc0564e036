package credstore

import (
	"encoding/base64"
	"encoding/json"

	"github.com/watson-app/watson/internal/werr"
)

// Secret is the runtime-only sum type `CredentialSecret` of
// original_source/common/src/auth/credentials.rs: either a decrypted
// plaintext held in a byte slice (so it can be wiped) or an encrypted
// nonce+ciphertext pair. Go has no Zeroize/ZeroizeOnDrop equivalent, so
// the plaintext lives in a []byte and callers that want the Rust
// "clear on drop" guarantee must call secureZero themselves (Lock does
// this automatically once a field is re-encrypted; see DESIGN.md).
type Secret struct {
	locked     bool
	nonce      [24]byte
	ciphertext []byte
	plaintext  []byte
}

// Decrypted wraps a plaintext value.
func Decrypted(value string) Secret {
	return Secret{plaintext: []byte(value)}
}

// IsLocked reports whether the secret currently holds ciphertext rather
// than plaintext.
func (s Secret) IsLocked() bool {
	return s.locked
}

// IsEmpty mirrors CredentialSecret::is_empty.
func (s Secret) IsEmpty() bool {
	if s.locked {
		return len(s.ciphertext) == 0
	}
	return len(s.plaintext) == 0
}

// String yields "<encrypted>" while locked, the plaintext otherwise —
// matching the original Display impl, so an encrypted secret never
// leaks into a log line or %v formatting by accident.
func (s Secret) String() string {
	if s.locked {
		return "<encrypted>"
	}
	return string(s.plaintext)
}

type secretJSON struct {
	State      string `json:"state"`
	Nonce      string `json:"nonce,omitempty"`
	Ciphertext string `json:"ciphertext,omitempty"`
}

// MarshalJSON only ever serializes a locked secret — Manager.Save locks
// every credential before writing, matching the original's panic-on-
// decrypted-serialize behavior, translated to a returned error.
func (s Secret) MarshalJSON() ([]byte, error) {
	if !s.locked {
		return nil, werr.New(werr.KindSerialize, "attempted to serialize a decrypted secret")
	}
	return json.Marshal(secretJSON{
		State:      "encrypted",
		Nonce:      base64.StdEncoding.EncodeToString(s.nonce[:]),
		Ciphertext: base64.StdEncoding.EncodeToString(s.ciphertext),
	})
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var raw secretJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return werr.Wrap(werr.KindDeserialize, err)
	}

	nonceBytes, err := base64.StdEncoding.DecodeString(raw.Nonce)
	if err != nil {
		return werr.New(werr.KindBase64Decode, "invalid nonce encoding")
	}
	if len(nonceBytes) != 24 {
		return werr.New(werr.KindBase64Decode, "invalid nonce length")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(raw.Ciphertext)
	if err != nil {
		return werr.New(werr.KindBase64Decode, "invalid ciphertext encoding")
	}

	var nonce [24]byte
	copy(nonce[:], nonceBytes)

	s.locked = true
	s.nonce = nonce
	s.ciphertext = ciphertext
	s.plaintext = nil
	return nil
}

// secureZero overwrites b in place, the closest Go gets to Zeroize for a
// byte slice still reachable by the garbage collector.
func secureZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
