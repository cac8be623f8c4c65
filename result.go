package finstmt

// Policy decides which table represents a kind when several tables match it.
type Policy string

// Policy constants.
const (
	// PolicyLast keeps the last matching table in document order.
	PolicyLast Policy = "last"

	// PolicyLargest keeps the matching table with the most cells.
	// Ties go to the later table.
	PolicyLargest Policy = "largest"
)

// ParsePolicy returns the policy named s. An empty name is PolicyLast.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyLast:
		return PolicyLast, nil
	case PolicyLargest:
		return PolicyLargest, nil
	}
	return "", Errorf(EINVALID, "unknown selection policy %q", s)
}

// Choose picks one match out of matches listed in document order.
// Returns nil if matches is empty.
func (p Policy) Choose(matches []*Match) *Match {
	if len(matches) == 0 {
		return nil
	}

	switch p {
	case PolicyLargest:
		best := matches[0]
		for _, m := range matches[1:] {
			if m.Table.Cells() >= best.Table.Cells() {
				best = m
			}
		}
		return best
	default:
		return matches[len(matches)-1]
	}
}

// Match is a table classified as a statement.
type Match struct {
	Kind     Kind   `json:"kind"`
	Index    int    `json:"index"`
	Identity string `json:"identity"`
	Table    *Table `json:"table"`
}

// Fault records a table that could not be processed.
// Faults never abort a run.
type Fault struct {
	Index    int    `json:"index"`
	Identity string `json:"identity"`
	Err      error  `json:"-"`
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Err == nil {
		return f.Identity
	}
	return f.Identity + ": " + f.Err.Error()
}

// Unwrap returns the underlying error.
func (f *Fault) Unwrap() error {
	return f.Err
}

// Result holds the outcome of extracting statements from one document.
// A result without tables is a valid outcome.
type Result struct {
	// Scanned is the number of tables found in the document.
	Scanned int

	// Tables holds the selected table per kind.
	Tables map[Kind]*Table

	// Matches holds every match per kind in document order.
	Matches map[Kind][]*Match

	// Faults holds tables that failed processing.
	Faults []*Fault
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{
		Tables:  make(map[Kind]*Table),
		Matches: make(map[Kind][]*Match),
	}
}

// Select fills Tables from Matches using the given policy.
func (r *Result) Select(p Policy) {
	r.Tables = make(map[Kind]*Table, len(r.Matches))
	for kind, matches := range r.Matches {
		if m := p.Choose(matches); m != nil {
			r.Tables[kind] = m.Table
		}
	}
}

// Selected returns the match chosen for kind under p, if any.
func (r *Result) Selected(kind Kind, p Policy) (*Match, bool) {
	m := p.Choose(r.Matches[kind])
	return m, m != nil
}

// KindSummary reports whether a statement kind was found.
type KindSummary struct {
	Kind    Kind
	Found   bool
	Matches int
}

// Summary returns found/not-found status for every kind in report order.
func (r *Result) Summary() []KindSummary {
	summary := make([]KindSummary, 0, len(Kinds))
	for _, kind := range Kinds {
		_, found := r.Tables[kind]
		summary = append(summary, KindSummary{
			Kind:    kind,
			Found:   found,
			Matches: len(r.Matches[kind]),
		})
	}
	return summary
}
