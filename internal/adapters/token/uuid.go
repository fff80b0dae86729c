package token

import (
	"github.com/google/uuid"

	"eventreservation/internal/domain"
)

type uuidGenerator struct{}

// NewUUIDGenerator returns a TokenGenerator producing random (version 4) UUIDs.
func NewUUIDGenerator() domain.TokenGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewToken() string {
	return uuid.NewString()
}
