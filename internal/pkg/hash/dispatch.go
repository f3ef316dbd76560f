package hash

// Dispatch hashes with its primary algorithm and verifies with whichever
// registered algorithm recognizes the stored hash.
type Dispatch struct {
	primary recognizer
	all     []recognizer
}

// NewDispatch builds a Dispatch. primary is used for new hashes; legacy algorithms
// are only consulted by Verify.
func NewDispatch(primary *Argon2id, legacy ...*Bcrypt) *Dispatch {
	all := []recognizer{primary}
	for _, l := range legacy {
		all = append(all, l)
	}
	return &Dispatch{primary: primary, all: all}
}

func (d *Dispatch) Hash(plaintext string) ([]byte, error) {
	return d.primary.Hash(plaintext)
}

// Verify reports false for hashes no registered algorithm recognizes.
func (d *Dispatch) Verify(hashed, plaintext string) bool {
	for _, h := range d.all {
		if h.Recognizes(hashed) {
			return h.Verify(hashed, plaintext)
		}
	}
	return false
}
