package scoring

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/GSinger-Abt/commune-vi-service/internal/domain"
)

// WriteCSV renders a snapshot as CSV: one row per commune with identity
// columns, the index, its percentile, and one signed contribution column per
// domain. Geometry never appears in exports.
func WriteCSV(w io.Writer, snap *Snapshot) error {
	cw := csv.NewWriter(w)

	domains := domain.Domains()
	header := []string{"pcode", "name", "region", "population", "vulnerability_index", "percentile"}
	for _, d := range domains {
		header = append(header, string(d))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, s := range snap.Scores {
		row := []string{
			s.Commune.PCode,
			s.Commune.Name,
			s.Commune.Region,
			formatFloat(s.Commune.Population),
			formatFloat(s.Score),
			formatFloat(s.Percentile),
		}
		for _, d := range domains {
			row = append(row, formatFloat(s.DomainParts[d]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
