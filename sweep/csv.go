package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// fixedColumns follow the axis columns in every CSV export.
var fixedColumns = []string{
	"converged",
	"iterations",
	"totalRealThroughput",
	"totalDecoyPower",
	"jammerWasteOnDecoys",
	"dilutionFactor",
	"defenderUtility",
	"attackerUtility",
	"error",
}

// WriteCSV renders rows as one CSV table: an index column, one column per
// axis (taken from the first row, every row of a sweep shares its axes),
// then the headline metrics.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	header := []string{"index"}
	if len(rows) > 0 {
		for _, l := range rows[0].Labels {
			header = append(header, l.Axis)
		}
	}
	header = append(header, fixedColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.Itoa(row.Index))
		for _, l := range row.Labels {
			rec = append(rec, l.Value)
		}
		rec = append(rec,
			strconv.FormatBool(row.Converged),
			strconv.Itoa(row.Iterations),
			formatMetric(row.TotalRealThroughput),
			formatMetric(row.TotalDecoyPower),
			formatMetric(row.JammerWasteOnDecoys),
			formatMetric(row.DilutionFactor),
			formatMetric(row.DefenderUtility),
			formatMetric(row.AttackerUtility),
			row.Err,
		)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", row.Index, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
