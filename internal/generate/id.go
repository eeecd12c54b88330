package generate

import (
	"strings"

	"github.com/google/uuid"
)

// NewRecordID returns a six-character upper-case hex identifier
func NewRecordID() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:6])
}
