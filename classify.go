package finstmt

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind identifies a financial statement.
type Kind string

// Kind constants.
const (
	BalanceSheet      Kind = "balance_sheet"
	IncomeStatement   Kind = "income_statement"
	CashFlowStatement Kind = "cash_flow_statement"
)

// Kinds lists every statement kind in report order.
var Kinds = []Kind{BalanceSheet, IncomeStatement, CashFlowStatement}

// Size thresholds below which a table is considered decoration.
// A table is skipped only when it falls short of both.
const (
	MinRows    = 5
	MinColumns = 3
)

// Rule matches a statement kind by phrases that must all appear in a
// table's flattened text.
type Rule struct {
	Kind    Kind
	Phrases []string
}

// Match reports whether text contains every phrase of the rule.
// Text must already be lower-cased.
func (r Rule) Match(text string) bool {
	if len(r.Phrases) == 0 {
		return false
	}
	for _, phrase := range r.Phrases {
		if !strings.Contains(text, phrase) {
			return false
		}
	}
	return true
}

// Rules is the ordered classification table. The first matching rule wins.
// The phrases are line items that reporting conventions make near-universal
// for each statement.
var Rules = []Rule{
	{Kind: BalanceSheet, Phrases: []string{"total liabilities and shareholders' equity"}},
	{Kind: CashFlowStatement, Phrases: []string{"cash and cash equivalents at end of period"}},
	{Kind: IncomeStatement, Phrases: []string{"total operating expenses", "net income per share"}},
}

// apostrophes folds typographic apostrophes, which filings use freely,
// into the ASCII form used by Rules.
var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Eligible reports whether a table is large enough to be a statement.
func Eligible(t *Table) bool {
	if t.Empty() {
		return false
	}
	return !(t.NumRows() < MinRows && t.NumColumns() < MinColumns)
}

// ClassifyText matches lower-cased text against Rules.
func ClassifyText(text string) (Kind, bool) {
	text = foldText(text)
	for _, rule := range Rules {
		if rule.Match(text) {
			return rule.Kind, true
		}
	}
	return "", false
}

// foldText brings text to the form Rules are written in. NFKC turns
// non-breaking and other compatibility spaces into plain ones, and cells
// wrapped over several lines are joined back into single-spaced text.
func foldText(text string) string {
	text = strings.ToLower(norm.NFKC.String(text))
	text = apostrophes.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// Classify returns the statement kind of an eligible table.
// Ineligible tables never classify.
func Classify(t *Table) (Kind, bool) {
	if !Eligible(t) {
		return "", false
	}
	return ClassifyText(t.Text())
}
