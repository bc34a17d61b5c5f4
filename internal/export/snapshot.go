package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

// WriteSnapshotJSON writes the full snapshot record as indented JSON.
func WriteSnapshotJSON(w io.Writer, snap *domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}
