package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

type CredentialKind uint8

const (
	CredentialsNone CredentialKind = iota
	CredentialsSingle
	CredentialsMultiple
)

// Credentials holds the API keys issued for one order.
//
// A single key is stored as the bare key string, several keys as a JSON array
// of strings. Encode and DecodeCredentials are the only places that know
// about that layout; the sql and json hooks below go through them.
//
// Arrays read back from storage or supplied by an operator keep their exact
// text, so re-encoding them never changes the stored bytes.
type Credentials struct {
	kind CredentialKind
	keys []string
	raw  string
}

func SingleCredential(key string) Credentials {
	return Credentials{kind: CredentialsSingle, keys: []string{key}}
}

func MultipleCredentials(keys []string) Credentials {
	return Credentials{kind: CredentialsMultiple, keys: append([]string(nil), keys...)}
}

// IssuedCredentials picks the variant for a freshly minted batch of keys.
func IssuedCredentials(keys []string) Credentials {
	switch len(keys) {
	case 0:
		return Credentials{}
	case 1:
		return SingleCredential(keys[0])
	default:
		return MultipleCredentials(keys)
	}
}

func (c Credentials) Kind() CredentialKind { return c.kind }

func (c Credentials) IsZero() bool { return c.kind == CredentialsNone }

func (c Credentials) Len() int { return len(c.keys) }

func (c Credentials) Clone() Credentials {
	if c.keys == nil {
		return c
	}
	return Credentials{kind: c.kind, keys: append([]string(nil), c.keys...), raw: c.raw}
}

// Keys returns a copy of the issued keys, empty when none were issued.
func (c Credentials) Keys() []string {
	if len(c.keys) == 0 {
		return []string{}
	}
	return append([]string(nil), c.keys...)
}

// Encode returns the persisted form. ok is false when nothing was issued.
func (c Credentials) Encode() (s string, ok bool) {
	switch c.kind {
	case CredentialsSingle:
		return c.keys[0], true
	case CredentialsMultiple:
		if c.raw != "" {
			return c.raw, true
		}
		return encodeKeys(c.keys), true
	default:
		return "", false
	}
}

// DecodeCredentials parses a persisted api key field.
//
// Only a JSON array switches to the multiple form. Any other text, including
// JSON scalars like 12345 or "abc", is kept verbatim as one key.
func DecodeCredentials(s string) Credentials {
	if s == "" {
		return Credentials{}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(s), &elems); err != nil || elems == nil {
		return SingleCredential(s)
	}

	keys := make([]string, 0, len(elems))
	for _, raw := range elems {
		raw = bytes.TrimSpace(raw)
		key := string(raw)
		if len(raw) > 0 && raw[0] == '"' {
			_ = json.Unmarshal(raw, &key)
		}
		keys = append(keys, key)
	}
	return Credentials{kind: CredentialsMultiple, keys: keys, raw: s}
}

func encodeKeys(keys []string) string {
	if keys == nil {
		keys = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(keys); err != nil {
		// []string always marshals
		panic(err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func (c Credentials) Value() (driver.Value, error) {
	s, ok := c.Encode()
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (c *Credentials) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = Credentials{}
	case string:
		*c = DecodeCredentials(v)
	case []byte:
		*c = DecodeCredentials(string(v))
	default:
		return fmt.Errorf("scan credentials: unsupported type %T", src)
	}
	return nil
}

// GormDataType keeps the column a plain text field on every dialect.
func (Credentials) GormDataType() string { return "text" }

func (c Credentials) MarshalJSON() ([]byte, error) {
	s, ok := c.Encode()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(s)
}

func (c *Credentials) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = Credentials{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode credentials: %w", err)
	}
	*c = DecodeCredentials(s)
	return nil
}
