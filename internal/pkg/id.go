package pkg

import "github.com/google/uuid"

// GenerateID returns a random identifier for rooms and games.
func GenerateID() string {
	return uuid.NewString()
}
