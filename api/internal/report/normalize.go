package report

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

const (
	// RecordTimeLayout is the sheet timestamp format, local time.
	RecordTimeLayout = "2006-01-02 15:04:05"
	// EnvelopeTimeLayout is ISO 8601 at second precision.
	EnvelopeTimeLayout = time.RFC3339
)

type IDGenerator interface {
	NewID() string
}

// UUIDs issues random v4 UUIDs.
type UUIDs struct{}

func (UUIDs) NewID() string { return uuid.NewString() }

// LegacyIDs issues 2-digit ids "00".."99". Not unique: collisions are expected
// after a handful of reports. Only for sheets that already hold such ids.
type LegacyIDs struct{}

func (LegacyIDs) NewID() string { return fmt.Sprintf("%02d", rand.IntN(100)) }

// IDsForMode maps the REPORT_ID_MODE setting to a generator.
func IDsForMode(mode string) IDGenerator {
	if mode == "legacy" {
		return LegacyIDs{}
	}
	return UUIDs{}
}

type Normalizer struct {
	IDs IDGenerator
	Now func() time.Time
}

func NewNormalizer(ids IDGenerator) *Normalizer {
	if ids == nil {
		ids = UUIDs{}
	}
	return &Normalizer{IDs: ids, Now: time.Now}
}

// Normalize assigns an id and a timestamp and wraps the analysis.
func (n *Normalizer) Normalize(a MedicalReportAnalysis) Envelope {
	now := n.Now().Truncate(time.Second)
	if a.Concerns == nil {
		a.Concerns = []string{}
	}
	if a.Levels == nil {
		a.Levels = []TestLevel{}
	}
	return Envelope{
		Success:   true,
		ID:        n.IDs.NewID(),
		Timestamp: now.Format(EnvelopeTimeLayout),
		Data:      a,
		CreatedAt: now,
	}
}
