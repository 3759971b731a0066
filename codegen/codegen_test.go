package codegen

import (
	"strings"
	"sync"
	"testing"
)

func TestNewRandom(t *testing.T) {
	gen := NewRandom()
	if gen == nil {
		t.Fatal("NewRandom() returned nil")
	}
}

func TestRandomGenerator_Generate(t *testing.T) {
	t.Run("generates code of correct length", func(t *testing.T) {
		gen := NewRandom()

		for _, length := range []int{1, 5, 7, 10, 15} {
			code, err := gen.Generate(length)
			if err != nil {
				t.Fatalf("Generate(%d) unexpected error: %v", length, err)
			}
			if len(code) != length {
				t.Errorf("Generate(%d) returned length %d, want %d", length, len(code), length)
			}
		}
	})

	t.Run("generates only alphanumeric characters", func(t *testing.T) {
		gen := NewRandom()

		for range 100 {
			code, err := gen.Generate(DefaultCodeLength)
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			for i, char := range code {
				if !strings.ContainsRune(alphanumericChars, char) {
					t.Errorf("Generate() produced invalid character %c at position %d", char, i)
				}
			}
		}
	})

	t.Run("generates varied output", func(t *testing.T) {
		gen := NewRandom()
		seen := make(map[string]bool)

		for range 500 {
			code, err := gen.Generate(10)
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			seen[code] = true
		}

		// With a 10-character alphanumeric code, collisions across 500
		// draws are effectively impossible.
		if len(seen) != 500 {
			t.Errorf("expected 500 unique codes, got %d", len(seen))
		}
	})

	t.Run("returns error for zero length", func(t *testing.T) {
		gen := NewRandom()
		if _, err := gen.Generate(0); err == nil {
			t.Error("Generate(0) expected error, got nil")
		}
	})

	t.Run("returns error for negative length", func(t *testing.T) {
		gen := NewRandom()
		if _, err := gen.Generate(-1); err == nil {
			t.Error("Generate(-1) expected error, got nil")
		}
	})

	t.Run("returns error above maximum length", func(t *testing.T) {
		gen := NewRandom()
		if _, err := gen.Generate(MaxCodeLength + 1); err == nil {
			t.Errorf("Generate(%d) expected error, got nil", MaxCodeLength+1)
		}
	})

	t.Run("concurrent generation is safe", func(t *testing.T) {
		gen := NewRandom()
		const goroutines = 50
		const iterations = 100

		var wg sync.WaitGroup
		errChan := make(chan error, goroutines*iterations)

		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range iterations {
					if _, err := gen.Generate(8); err != nil {
						errChan <- err
						return
					}
				}
			}()
		}

		wg.Wait()
		close(errChan)

		for err := range errChan {
			t.Errorf("concurrent Generate() error: %v", err)
		}
	})
}

func TestValidateCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"single character", "a", false},
		{"digits only", "12345", false},
		{"mixed case", "AbC19", false},
		{"dash and underscore", "my-link_1", false},
		{"max length", strings.Repeat("x", 15), false},
		{"empty", "", true},
		{"too long", strings.Repeat("x", 16), true},
		{"spaces", "my link", true},
		{"slash", "a/b", true},
		{"unicode", "café", true},
		{"dot", "a.b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCode(tt.code)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCode(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCustomCode(t *testing.T) {
	t.Run("accepts ordinary aliases", func(t *testing.T) {
		for _, code := range []string{"promo", "x1", "Team_2026", "a-b-c"} {
			if err := ValidateCustomCode(code); err != nil {
				t.Errorf("ValidateCustomCode(%q) unexpected error: %v", code, err)
			}
		}
	})

	t.Run("rejects reserved route segments", func(t *testing.T) {
		for _, code := range []string{"api", "API", "preview", "health", "Health"} {
			if err := ValidateCustomCode(code); err == nil {
				t.Errorf("ValidateCustomCode(%q) expected error for reserved code", code)
			}
		}
	})

	t.Run("rejects malformed aliases", func(t *testing.T) {
		if err := ValidateCustomCode("bad alias!"); err == nil {
			t.Error("ValidateCustomCode expected error for invalid charset")
		}
	})
}
