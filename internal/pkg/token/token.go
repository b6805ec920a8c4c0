// Package token produces opaque session tokens.
package token

import "github.com/google/uuid"

// Generator yields random version 4 UUID strings: 122 bits of entropy from
// crypto/rand, fixed 36-character format. Collisions are negligible under
// the birthday bound for any realistic session volume.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate panics only if the OS entropy source is unavailable.
func (g *Generator) Generate() string {
	return uuid.Must(uuid.NewRandom()).String()
}
