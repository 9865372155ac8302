package task

import "github.com/google/uuid"

func parseID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}
