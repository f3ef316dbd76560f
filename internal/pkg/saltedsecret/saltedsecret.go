package saltedsecret

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
	"strings"
)

// Delimiter separates secret and base64 salt in the pre-envelope salted
// format. Decode still reads it; Encode never writes it.
const Delimiter = "|salt:"

// Marker prefixes every salted value. Base32 secrets never contain '$',
// so a legacy value cannot be mistaken for an envelope.
const Marker = "$ts1$"

const (
	version1   byte = 1
	lenPrefix       = 2
	headerSize      = 1 + lenPrefix
)

var (
	// ErrEmptySecret is returned by Encode for a zero-length raw secret.
	ErrEmptySecret = errors.New("saltedsecret: raw secret is empty")
	// ErrTooLong is returned by Encode when a part does not fit its uint16 length prefix.
	ErrTooLong = errors.New("saltedsecret: part exceeds 65535 bytes")
)

var encoding = base64.RawURLEncoding

// Decoded is the result of Decode: either Salted or Legacy.
type Decoded interface {
	// Secret returns the raw secret, the only value the TOTP engine needs.
	Secret() string
	decoded()
}

// Salted is a value produced by Encode, or read from the delimited format.
type Salted struct {
	RawSecret string
	Salt      []byte
}

func (s Salted) Secret() string { return s.RawSecret }
func (Salted) decoded() {}

// Legacy is a value stored without an envelope; RawSecret is the stored string as is.
type Legacy struct {
	RawSecret string
}

func (l Legacy) Secret() string { return l.RawSecret }
func (Legacy) decoded() {}

// Encode wraps rawSecret and salt into an envelope. salt may be empty.
func Encode(rawSecret string, salt []byte) (string, error) {
	if rawSecret == "" {
		return "", ErrEmptySecret
	}
	if len(rawSecret) > math.MaxUint16 || len(salt) > math.MaxUint16 {
		return "", ErrTooLong
	}

	payload := make([]byte, 0, headerSize+len(rawSecret)+lenPrefix+len(salt))
	payload = append(payload, version1)
	payload = binary.BigEndian.AppendUint16(payload, uint16(len(rawSecret)))
	payload = append(payload, rawSecret...)
	payload = binary.BigEndian.AppendUint16(payload, uint16(len(salt)))
	payload = append(payload, salt...)

	return Marker + encoding.EncodeToString(payload), nil
}

// Decode never fails: anything that is neither a valid envelope nor a valid
// delimited value is Legacy.
func Decode(persisted string) Decoded {
	body, ok := strings.CutPrefix(persisted, Marker)
	if !ok {
		return decodeDelimited(persisted)
	}

	payload, err := encoding.DecodeString(body)
	if err != nil {
		return Legacy{RawSecret: persisted}
	}

	secret, salt, ok := parseV1(payload)
	if !ok {
		return Legacy{RawSecret: persisted}
	}

	return Salted{RawSecret: string(secret), Salt: salt}
}

func parseV1(p []byte) (secret, salt []byte, ok bool) {
	if len(p) < headerSize || p[0] != version1 {
		return nil, nil, false
	}

	n := int(binary.BigEndian.Uint16(p[1:headerSize]))
	rest := p[headerSize:]
	if n == 0 || len(rest) < n+lenPrefix {
		return nil, nil, false
	}
	secret, rest = rest[:n], rest[n:]

	m := int(binary.BigEndian.Uint16(rest[:lenPrefix]))
	rest = rest[lenPrefix:]
	if len(rest) != m {
		return nil, nil, false
	}

	return secret, bytes.Clone(rest), true
}

// decodeDelimited splits at the first Delimiter. A missing delimiter, an empty
// secret, or a salt that is not standard base64 leaves the value Legacy.
func decodeDelimited(persisted string) Decoded {
	secret, encSalt, ok := strings.Cut(persisted, Delimiter)
	if !ok || secret == "" {
		return Legacy{RawSecret: persisted}
	}

	salt, err := base64.StdEncoding.DecodeString(encSalt)
	if err != nil {
		return Legacy{RawSecret: persisted}
	}

	return Salted{RawSecret: secret, Salt: salt}
}
