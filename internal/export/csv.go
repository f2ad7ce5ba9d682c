package export

import (
	"encoding/csv"
	"io"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
)

// BOM lets Excel on Windows open the UTF-8 Korean headers correctly.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a BOM, a labeled header row, and one row per record.
func WriteCSV(w io.Writer, recs []declaration.OutputRecord, cols []constants.Column) error {
	if len(cols) == 0 {
		cols = constants.DefaultColumns
	}
	if _, err := w.Write(BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label()
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(r.Row(cols)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
