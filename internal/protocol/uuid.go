package protocol

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidUUID is returned for player ids that are neither hyphenated nor bare hex.
var ErrInvalidUUID = errors.New("invalid uuid")

// NormalizeUUID returns the hyphenated 36-character form of id.
// Bare 32-character hex gets hyphens inserted at offsets 8, 12, 16 and 20.
// An empty id is returned as is.
func NormalizeUUID(id string) (string, error) {
	switch len(id) {
	case 0:
		return id, nil
	case 36:
	case 32:
		id = id[:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:]
	default:
		return "", fmt.Errorf("%w: %q has length %d", ErrInvalidUUID, id, len(id))
	}

	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidUUID, err)
	}

	return id, nil
}
