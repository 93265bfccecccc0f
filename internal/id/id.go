// Package id generates identifiers for entities and transient handles.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewUUID returns a random UUID string.
// Saved tabs and lists carry UUID ids so exports stay compatible with
// payloads produced by other EchoTab surfaces.
func NewUUID() string {
	return uuid.NewString()
}

// IsUUID reports whether s is a valid UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Generate creates a prefixed unique handle using NanoID.
// Format: prefix-nanoid (e.g., "cli-V1StGXR8_Z5jdHi6B-myT").
// Used for transient identifiers (SSE clients) where compactness matters
// and UUID compatibility does not.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use only where failure should crash the program (e.g., during initialization).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
