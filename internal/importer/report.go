package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/democracyclub/pollingstations-cli/internal/store"
)

// Report summarizes one import run.
type Report struct {
	RunID       string
	CouncilID   string
	Stations    int
	Districts   int
	Addresses   int
	Cleanup     *store.CleanupResult
	GeneratedAt time.Time
}

// NewReport stamps a fresh run id and timestamp over the stored counts.
func NewReport(councilID string, counts *store.EntityCounts, cleanup *store.CleanupResult) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		CouncilID:   councilID,
		Stations:    counts.Stations,
		Districts:   counts.Districts,
		Addresses:   counts.Addresses,
		Cleanup:     cleanup,
		GeneratedAt: time.Now().UTC(),
	}
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Import %s for %s at %s\n", r.RunID, r.CouncilID, r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "  polling stations:      %d\n", r.Stations)
	fmt.Fprintf(&b, "  polling districts:     %d\n", r.Districts)
	fmt.Fprintf(&b, "  residential addresses: %d\n", r.Addresses)
	if r.Cleanup != nil {
		fmt.Fprintf(&b, "  postcodes contained:   %d\n", r.Cleanup.PostcodesContained)
		fmt.Fprintf(&b, "  addresses repaired:    %d\n", r.Cleanup.AddressesRepaired)
	}
	return b.String()
}
