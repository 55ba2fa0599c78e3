package markup

import "math/rand/v2"

// idAlphabet is the base-36 character set used for id suffixes.
const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// idLength is the suffix length. 36^8 values make collisions improbable
// within a page lifetime, which is the only scope these ids serve.
const idLength = 8

// NewID returns prefix joined to a random base-36 suffix, for scoping
// delegated selectors and labelling generated elements. The ids are not
// globally unique and must not be used as durable keys.
func NewID(prefix string) string {
	suffix := make([]byte, idLength)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	if prefix == "" {
		return string(suffix)
	}
	return prefix + "-" + string(suffix)
}
