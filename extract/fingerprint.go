package extract

import (
	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/finstmt"
)

// Fingerprint hashes a table's columns and cells. Tables with the same
// labels and content have the same fingerprint.
func Fingerprint(t *finstmt.Table) uint64 {
	h := xxhash.New()
	if t == nil {
		return h.Sum64()
	}
	for _, col := range t.Columns {
		_, _ = h.WriteString(col)
		_, _ = h.Write([]byte{0x1f})
	}
	for _, row := range t.Rows {
		_, _ = h.Write([]byte{0x1e})
		for _, cell := range row {
			_, _ = h.WriteString(cell)
			_, _ = h.Write([]byte{0x1f})
		}
	}
	return h.Sum64()
}
