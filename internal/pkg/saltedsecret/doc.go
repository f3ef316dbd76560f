// Package saltedsecret encodes a TOTP raw secret together with a per-credential
// salt into the single text value kept in a credential's secret column, and
// decodes it back.
//
// Encoded values are a self-describing envelope:
//
//	"$ts1$" + base64url(payload)
//
//	payload:
//	[0]          version (1)
//	[1..2]       uint16 big-endian secret length N
//	[3..3+N)     secret bytes
//	[3+N..5+N)   uint16 big-endian salt length M
//	[5+N..5+N+M) salt bytes
//
// Lengths are explicit, so any secret bytes split unambiguously.
//
// Decode also reads the earlier delimited form, secret + "|salt:" +
// base64(salt), splitting at the first delimiter. Values in neither form
// decode as Legacy: the whole string is the raw secret, which is how
// credentials written before salting are stored.
package saltedsecret
