// Package codegen provides short-code generation and validation.
// Generators should be safe for concurrent use.
package codegen

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
)

const (
	// alphanumericChars is the alphabet used for generated codes. Custom
	// aliases may additionally contain '-' and '_'.
	alphanumericChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultCodeLength is the length of generated short codes.
	DefaultCodeLength = 5

	// MaxCodeLength bounds both generated codes and custom aliases.
	MaxCodeLength = 15
)

// codePattern matches every acceptable short code, generated or custom.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,15}$`)

// reservedCodes are path segments owned by the service's own routes.
var reservedCodes = []string{"api", "preview", "health"}

// Generator generates short codes.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate(length int) (string, error)
}

// randomGenerator implements Generator by drawing uniformly from the
// alphanumeric alphabet. It is safe for concurrent use.
type randomGenerator struct{}

// NewRandom returns a new random short-code generator.
func NewRandom() Generator {
	return &randomGenerator{}
}

// Generate generates a random alphanumeric string of the specified length.
func (g *randomGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}
	if length > MaxCodeLength {
		return "", errors.New("length exceeds maximum code length")
	}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	for i := range b {
		b[i] = alphanumericChars[int(b[i])%len(alphanumericChars)]
	}

	return string(b), nil
}

// ValidateCode reports whether code is a well-formed short code:
// 1-15 characters from [A-Za-z0-9_-].
func ValidateCode(code string) error {
	if code == "" {
		return errors.New("code cannot be empty")
	}
	if len(code) > MaxCodeLength {
		return errors.New("code too long (maximum 15 characters)")
	}
	if !codePattern.MatchString(code) {
		return errors.New("code contains invalid characters (only letters, digits, dash, and underscore allowed)")
	}
	return nil
}

// ValidateCustomCode validates a caller-supplied alias. On top of the
// format rules it rejects codes that collide with the service's own routes.
func ValidateCustomCode(code string) error {
	if err := ValidateCode(code); err != nil {
		return err
	}
	for _, reserved := range reservedCodes {
		if strings.EqualFold(code, reserved) {
			return errors.New("this code is reserved and cannot be used")
		}
	}
	return nil
}
