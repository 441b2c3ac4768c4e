package common

import (
	"github.com/google/uuid"
)

// NewRequestID generates a unique request ID with the "req_" prefix
func NewRequestID() string {
	return "req_" + uuid.New().String()
}

// NewScratchID generates the unique prefix used for scratch file names
func NewScratchID() string {
	return uuid.New().String()
}
