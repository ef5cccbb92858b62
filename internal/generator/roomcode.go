package generator

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	DefaultRoomCodeSize     = 6
	DefaultRoomCodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// RoomCodeGenerator draws short, human-typeable room codes. Codes are
// drawn from a lower-case alphabet and upper-cased, so joins can be
// matched case-insensitively.
type RoomCodeGenerator struct {
	size     int
	alphabet string
}

// NewRoomCodeGenerator creates a generator.
// size must be between 1 and 32. alphabet must have at least 2 characters,
// all ASCII letters, digits, '-' or '_', and stay distinct once upper-cased.
func NewRoomCodeGenerator(size int, alphabet string) (*RoomCodeGenerator, error) {
	if size < 1 || size > 32 {
		return nil, fmt.Errorf("room code size must be between 1 and 32, got %d", size)
	}
	if err := validateAlphabet(alphabet); err != nil {
		return nil, err
	}
	return &RoomCodeGenerator{
		size:     size,
		alphabet: alphabet,
	}, nil
}

func (g *RoomCodeGenerator) Generate() (string, error) {
	code, err := gonanoid.Generate(g.alphabet, g.size)
	if err != nil {
		return "", fmt.Errorf("failed to generate room code: %w", err)
	}
	return strings.ToUpper(code), nil
}

func validateAlphabet(alphabet string) error {
	if len(alphabet) < 2 {
		return fmt.Errorf("room code alphabet must have at least 2 characters, got %d", len(alphabet))
	}

	seen := make(map[byte]struct{}, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		switch {
		case c >= 'a' && c <= 'z':
			c -= 'a' - 'A'
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return fmt.Errorf("room code alphabet has unsupported character %q", alphabet[i])
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("room code alphabet repeats %q when upper-cased", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
