package export

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

// WriteArchive writes a zip bundle for a snapshot: the merged event list,
// one CSV per source that has in-AOI events, the unlocated side list when
// present, and the snapshot record itself. Empty per-source files are
// omitted rather than written with a bare header.
func WriteArchive(w io.Writer, snap *domain.Snapshot) error {
	zw := zip.NewWriter(w)

	if err := writeArchiveCSV(zw, "events.csv", snap.Events); err != nil {
		return err
	}
	for _, src := range domain.Sources() {
		var perSource []domain.Located
		for _, ev := range snap.Events {
			if ev.Source == src {
				perSource = append(perSource, ev)
			}
		}
		if len(perSource) == 0 {
			continue
		}
		name := fmt.Sprintf("aoi_%s.csv", src)
		if err := writeArchiveCSV(zw, name, perSource); err != nil {
			return err
		}
	}
	if len(snap.Unlocated) > 0 {
		f, err := zw.Create("unlocated.csv")
		if err != nil {
			return fmt.Errorf("create unlocated.csv: %w", err)
		}
		if err := WriteUnlocatedCSV(f, snap.Unlocated); err != nil {
			return err
		}
	}

	f, err := zw.Create("snapshot.json")
	if err != nil {
		return fmt.Errorf("create snapshot.json: %w", err)
	}
	if err := WriteSnapshotJSON(f, snap); err != nil {
		return err
	}
	return zw.Close()
}

func writeArchiveCSV(zw *zip.Writer, name string, events []domain.Located) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := WriteLocatedCSV(f, events); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
