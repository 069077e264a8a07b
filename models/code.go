package models

import (
	"strings"

	"github.com/google/uuid"
)

const (
	CodeLength = 8

	// MaxCodeAttempts bounds how often Create regenerates a colliding code.
	MaxCodeAttempts = 3
)

// GenerateCode returns a short uppercase product code taken from a random UUID.
// Uniqueness is enforced by the products.code unique index, not here.
func GenerateCode() string {
	return strings.ToUpper(uuid.NewString()[:CodeLength])
}
