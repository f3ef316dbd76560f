// Package hash hashes and verifies service client secrets.
//
// New secrets are hashed with Argon2id. Bcrypt hashes are still accepted on
// verification so client records imported from older systems keep working;
// Dispatch picks the algorithm from the hash prefix.
package hash

// Hash produces and checks encoded secret hashes.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// recognizer reports whether an encoded hash belongs to this algorithm.
type recognizer interface {
	Hash
	Recognizes(hashed string) bool
}
