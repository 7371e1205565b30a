// Package utils provides shared utility functions used across the application.
package utils

import (
	"github.com/google/uuid"
)

// GenerateID creates a new UUID v4 string, used for stream handles and
// tracking session identifiers.
func GenerateID() string {
	return uuid.New().String()
}
