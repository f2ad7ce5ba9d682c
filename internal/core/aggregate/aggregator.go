package aggregate

import (
	"sort"
	"sync"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
)

// Stats are the batch counters shown to the user.
type Stats struct {
	Documents  int
	Failed     int
	ZeroYield  int
	Analyzed   int // item records produced, before de-duplication
	Unique     int // item records after de-duplication
	FOC        int // FOC records after de-duplication
	Duplicates int
}

// Result is the merged, ordered, de-duplicated batch output.
type Result struct {
	Records    []declaration.OutputRecord // FOC only
	AllRecords []declaration.OutputRecord // diagnostic view including non-FOC items
	Warnings   []declaration.Warning
	Stats      Stats
}

type entry struct {
	records  []declaration.OutputRecord
	warnings []declaration.Warning
	failed   bool
	zero     bool
}

// Aggregator collects per-document results from concurrent workers.
// Documents are keyed by their position in the batch, so completion order does not matter.
type Aggregator struct {
	mu   sync.Mutex
	docs map[int]entry
}

func New() *Aggregator {
	return &Aggregator{docs: make(map[int]entry)}
}

// Add stores one parsed document at batch position index.
func (a *Aggregator) Add(index int, res declaration.DocumentResult) {
	e := entry{
		records:  res.Records,
		warnings: res.Warnings,
		zero:     len(res.Records) == 0,
	}
	a.mu.Lock()
	a.docs[index] = e
	a.mu.Unlock()
}

// AddFailure records a document whose text could not be acquired.
func (a *Aggregator) AddFailure(index int, name string, err error) {
	msg := "text acquisition failed"
	if err != nil {
		msg = err.Error()
	}
	e := entry{
		failed: true,
		warnings: []declaration.Warning{{
			Document: name,
			Kind:     constants.WarnAcquisitionFailure,
			Message:  msg,
		}},
	}
	a.mu.Lock()
	a.docs[index] = e
	a.mu.Unlock()
}

// Result merges everything added so far in document order.
func (a *Aggregator) Result() Result {
	a.mu.Lock()
	idx := make([]int, 0, len(a.docs))
	for i := range a.docs {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	ordered := make([]entry, len(idx))
	for n, i := range idx {
		ordered[n] = a.docs[i]
	}
	a.mu.Unlock()

	var (
		out Result
		all []declaration.OutputRecord
	)
	for _, e := range ordered {
		out.Stats.Documents++
		switch {
		case e.failed:
			out.Stats.Failed++
		case e.zero:
			out.Stats.ZeroYield++
		}
		all = append(all, e.records...)
		out.Warnings = append(out.Warnings, e.warnings...)
	}

	out.Stats.Analyzed = len(all)
	out.AllRecords = Dedup(all)
	out.Stats.Unique = len(out.AllRecords)
	out.Stats.Duplicates = out.Stats.Analyzed - out.Stats.Unique
	out.Records = FOCOnly(out.AllRecords)
	out.Stats.FOC = len(out.Records)
	return out
}

// Dedup drops records equal in every field to an earlier one, keeping first-seen order.
func Dedup(records []declaration.OutputRecord) []declaration.OutputRecord {
	if len(records) == 0 {
		return nil
	}
	seen := make(map[declaration.OutputRecord]struct{}, len(records))
	out := make([]declaration.OutputRecord, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func FOCOnly(records []declaration.OutputRecord) []declaration.OutputRecord {
	var out []declaration.OutputRecord
	for _, r := range records {
		if r.IsFOC {
			out = append(out, r)
		}
	}
	return out
}
