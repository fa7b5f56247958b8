package common

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRunID returns a sortable, collision-resistant run identifier.
// Format: YYYYMMDD-HHMMSS-<8 hex chars>
func NewRunID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return now.Format("20060102-150405") + "-" + suffix
}

// NewKnowledgeID generates a knowledge entry ID with the "kn_" prefix
func NewKnowledgeID() string {
	return "kn_" + uuid.New().String()
}
