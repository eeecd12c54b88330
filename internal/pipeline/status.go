package pipeline

import (
	"github.com/ppiankov/vignette/internal/fingerprint"
	"github.com/ppiankov/vignette/internal/model"
)

// Status counts where a corpus stands against the ledger
type Status struct {
	Total      int
	Processed  int
	Duplicates int // unprocessed rows repeating an earlier row's content or id
	Pending    int
}

// Inspect reports corpus progress without calling any provider
func Inspect(rows []model.SourceRecord, ledger Ledger) Status {
	st := Status{Total: len(rows)}
	seenPrints := make(map[string]struct{})
	seenIDs := make(map[string]struct{})

	for _, row := range rows {
		fp := fingerprint.Of(row.Text)
		switch {
		case ledger.IsProcessed(row.ID, fp):
			st.Processed++
		case hasKey(seenPrints, fp) || hasKey(seenIDs, row.ID):
			st.Duplicates++
		default:
			seenPrints[fp] = struct{}{}
			seenIDs[row.ID] = struct{}{}
			st.Pending++
		}
	}
	return st
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
