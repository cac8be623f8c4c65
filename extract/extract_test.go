package extract_test

import (
	"context"
	"encoding/csv"
	"errors"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/finstmt"
	"github.com/fwojciec/finstmt/extract"
	"github.com/fwojciec/finstmt/fs"
	"github.com/fwojciec/finstmt/goquery"
	"github.com/fwojciec/finstmt/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// htmlTable renders rows as a bare HTML table.
func htmlTable(rows ...[]string) string {
	var b strings.Builder
	b.WriteString("<table>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>\n")
	return b.String()
}

func document(tables ...string) string {
	return "<html><body>\n" + strings.Join(tables, "") + "</body></html>"
}

// balanceSheet is a header row plus five data rows of four columns.
func balanceSheet() string {
	return htmlTable(
		[]string{"Item", "2024", "2023", "2022"},
		[]string{"Cash and cash equivalents", "29,943", "29,965", "23,646"},
		[]string{"Total assets", "364,980", "352,583", "352,755"},
		[]string{"Total liabilities", "308,030", "290,437", "302,083"},
		[]string{"Total shareholders’ equity", "56,950", "62,146", "50,672"},
		[]string{"Total liabilities and shareholders’ equity", "364,980", "352,583", "352,755"},
	)
}

// incomeStatement returns an income statement whose first line item
// carries tag, padded with extra rows.
func incomeStatement(tag string, extra int) string {
	rows := [][]string{
		{"Item", "2024", "2023"},
		{"Net sales " + tag, "391,035", "383,285"},
		{"Total operating expenses", "57,467", "54,847"},
		{"Net income", "93,736", "96,995"},
		{"Net income per share", "6.11", "6.16"},
		{"Shares used", "15,343", "15,813"},
	}
	for i := 0; i < extra; i++ {
		rows = append(rows, []string{"Other", "1", "2"})
	}
	return htmlTable(rows...)
}

// smallTable is below both size thresholds even though it mentions
// statement line items.
func smallTable() string {
	return htmlTable(
		[]string{"Total operating expenses", "Net income per share"},
		[]string{"Total liabilities and shareholders' equity", "1"},
	)
}

// unmatchedTable is large enough to be a statement but matches no rule.
func unmatchedTable() string {
	return htmlTable(
		[]string{"Director", "Age", "Since"},
		[]string{"A. Smith", "61", "2011"},
		[]string{"B. Jones", "55", "2015"},
		[]string{"C. Brown", "49", "2019"},
		[]string{"D. White", "58", "2020"},
		[]string{"E. Green", "63", "2008"},
	)
}

// stringSource returns a source serving doc for every location.
func stringSource(doc string) *mock.DocumentSource {
	return &mock.DocumentSource{
		OpenFn: func(_ context.Context, _ string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(doc)), nil
		},
	}
}

// recorder captures calls made to a mock table store.
type recorder struct {
	saved   map[finstmt.Kind]*finstmt.Table
	order   []finstmt.Kind
	commits int
	aborts  int
}

func newRecordingStore() (*mock.TableStore, *recorder) {
	rec := &recorder{saved: make(map[finstmt.Kind]*finstmt.Table)}
	store := &mock.TableStore{
		SaveFn: func(_ context.Context, kind finstmt.Kind, table *finstmt.Table) error {
			rec.saved[kind] = table
			rec.order = append(rec.order, kind)
			return nil
		},
		CommitFn: func() error {
			rec.commits++
			return nil
		},
		AbortFn: func() error {
			rec.aborts++
			return nil
		},
	}
	return store, rec
}

func parse(t *testing.T, doc string) []finstmt.Fragment {
	t.Helper()

	fragments, err := goquery.NewParser().Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return fragments
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts single balance sheet", func(t *testing.T) {
		t.Parallel()

		store, rec := newRecordingStore()
		e := &extract.Extractor{
			Source: stringSource(document(balanceSheet())),
			Parser: goquery.NewParser(),
			Store:  store,
		}

		result, err := e.Extract(context.Background(), "10k.htm", nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Scanned)
		require.Len(t, result.Tables, 1)
		table := result.Tables[finstmt.BalanceSheet]
		require.NotNil(t, table)
		assert.Equal(t, 5, table.NumRows())
		assert.Equal(t, 4, table.NumColumns())
		assert.Equal(t, []string{"Item", "2024", "2023", "2022"}, table.Columns)

		assert.Equal(t, []finstmt.Kind{finstmt.BalanceSheet}, rec.order)
		assert.Equal(t, 1, rec.commits)
		assert.Equal(t, 0, rec.aborts)
	})

	t.Run("keeps last of several matching tables", func(t *testing.T) {
		t.Parallel()

		tables := make([]string, 10)
		for i := range tables {
			tables[i] = smallTable()
		}
		tables[2] = incomeStatement("first", 0)
		tables[9] = incomeStatement("second", 0)

		store, rec := newRecordingStore()
		e := &extract.Extractor{
			Source: stringSource(document(tables...)),
			Parser: goquery.NewParser(),
			Store:  store,
		}

		result, err := e.Extract(context.Background(), "10k.htm", nil)

		require.NoError(t, err)
		assert.Equal(t, 10, result.Scanned)
		require.Len(t, result.Tables, 1)
		assert.Equal(t, "Net sales second", result.Tables[finstmt.IncomeStatement].Rows[0][0])

		matches := result.Matches[finstmt.IncomeStatement]
		require.Len(t, matches, 2)
		assert.Equal(t, 2, matches[0].Index)
		assert.Equal(t, 9, matches[1].Index)

		assert.Same(t, result.Tables[finstmt.IncomeStatement], rec.saved[finstmt.IncomeStatement])
	})

	t.Run("returns empty result and aborts store when only small tables exist", func(t *testing.T) {
		t.Parallel()

		store, rec := newRecordingStore()
		e := &extract.Extractor{
			Source: stringSource(document(smallTable(), smallTable(), smallTable())),
			Parser: goquery.NewParser(),
			Store:  store,
		}

		result, err := e.Extract(context.Background(), "10k.htm", nil)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Scanned)
		assert.Empty(t, result.Tables)
		assert.Empty(t, rec.saved)
		assert.Equal(t, 0, rec.commits)
		assert.Equal(t, 1, rec.aborts)
	})

	t.Run("returns empty result for document without tables", func(t *testing.T) {
		t.Parallel()

		e := &extract.Extractor{
			Source: stringSource("<html><body><p>No tables here.</p></body></html>"),
			Parser: goquery.NewParser(),
		}

		result, err := e.Extract(context.Background(), "10k.htm", nil)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Scanned)
		assert.Empty(t, result.Tables)
	})

	t.Run("selects largest table with largest policy", func(t *testing.T) {
		t.Parallel()

		e := &extract.Extractor{
			Source: stringSource(document(incomeStatement("big", 4), incomeStatement("small", 0))),
			Parser: goquery.NewParser(),
			Policy: finstmt.PolicyLargest,
		}

		result, err := e.Extract(context.Background(), "10k.htm", nil)

		require.NoError(t, err)
		assert.Equal(t, "Net sales big", result.Tables[finstmt.IncomeStatement].Rows[0][0])
	})

	t.Run("saves kinds in report order", func(t *testing.T) {
		t.Parallel()

		cashFlow := htmlTable(
			[]string{"Item", "2024", "2023"},
			[]string{"Net income", "93,736", "96,995"},
			[]string{"Depreciation", "11,445", "11,519"},
			[]string{"Cash generated by operating activities", "118,254", "110,543"},
			[]string{"Cash and cash equivalents at end of period", "29,943", "30,737"},
			[]string{"Supplemental", "", ""},
		)

		store, rec := newRecordingStore()
		e := &extract.Extractor{
			Source: stringSource(document(cashFlow, incomeStatement("x", 0), balanceSheet())),
			Parser: goquery.NewParser(),
			Store:  store,
		}

		_, err := e.Extract(context.Background(), "10k.htm", nil)

		require.NoError(t, err)
		assert.Equal(t, finstmt.Kinds, rec.order)
	})

	t.Run("returns source error as is", func(t *testing.T) {
		t.Parallel()

		e := &extract.Extractor{
			Source: &mock.DocumentSource{
				OpenFn: func(_ context.Context, location string) (io.ReadCloser, error) {
					return nil, finstmt.Errorf(finstmt.ENOTFOUND, "file not found: %s", location)
				},
			},
			Parser: goquery.NewParser(),
			Store:  &mock.TableStore{},
		}

		_, err := e.Extract(context.Background(), "missing.htm", nil)

		require.Error(t, err)
		assert.Equal(t, finstmt.ENOTFOUND, finstmt.ErrorCode(err))
		assert.Equal(t, "file not found: missing.htm", finstmt.ErrorMessage(err))
	})

	t.Run("wraps parser error", func(t *testing.T) {
		t.Parallel()

		e := &extract.Extractor{
			Source: stringSource("ignored"),
			Parser: &mock.DocumentParser{
				ParseFn: func(_ io.Reader) ([]finstmt.Fragment, error) {
					return nil, finstmt.Errorf(finstmt.EINVALID, "failed to parse HTML: broken")
				},
			},
		}

		_, err := e.Extract(context.Background(), "10k.htm", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse 10k.htm")
		assert.Equal(t, finstmt.EINVALID, finstmt.ErrorCode(err))
	})

	t.Run("aborts store when save fails", func(t *testing.T) {
		t.Parallel()

		saveErr := errors.New("disk full")
		var aborted bool
		e := &extract.Extractor{
			Source: stringSource(document(balanceSheet())),
			Parser: goquery.NewParser(),
			Store: &mock.TableStore{
				SaveFn: func(_ context.Context, _ finstmt.Kind, _ *finstmt.Table) error {
					return saveErr
				},
				AbortFn: func() error {
					aborted = true
					return nil
				},
			},
		}

		_, err := e.Extract(context.Background(), "10k.htm", nil)

		require.ErrorIs(t, err, saveErr)
		assert.True(t, aborted)
	})

	t.Run("returns commit error", func(t *testing.T) {
		t.Parallel()

		commitErr := errors.New("rename failed")
		e := &extract.Extractor{
			Source: stringSource(document(balanceSheet())),
			Parser: goquery.NewParser(),
			Store: &mock.TableStore{
				SaveFn: func(_ context.Context, _ finstmt.Kind, _ *finstmt.Table) error {
					return nil
				},
				CommitFn: func() error {
					return commitErr
				},
			},
		}

		_, err := e.Extract(context.Background(), "10k.htm", nil)

		require.ErrorIs(t, err, commitErr)
	})

	t.Run("requires source and parser", func(t *testing.T) {
		t.Parallel()

		_, err := (&extract.Extractor{}).Extract(context.Background(), "10k.htm", nil)

		require.Error(t, err)
		assert.Equal(t, finstmt.EINVALID, finstmt.ErrorCode(err))
	})
}

func TestExtractor_Extract_CSVStore(t *testing.T) {
	t.Parallel()

	t.Run("writes one file per statement found", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "financial_tables")
		store := fs.NewCSVStore(dir)
		e := &extract.Extractor{
			Source: stringSource(document(balanceSheet())),
			Parser: goquery.NewParser(),
			Store:  store,
		}

		_, err := e.Extract(context.Background(), "10k.htm", nil)
		require.NoError(t, err)

		f, err := os.Open(store.Path(finstmt.BalanceSheet))
		require.NoError(t, err)
		defer f.Close()

		records, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 6)
		assert.Equal(t, []string{"Item", "2024", "2023", "2022"}, records[0])

		assert.NoFileExists(t, store.Path(finstmt.IncomeStatement))
		assert.NoFileExists(t, store.Path(finstmt.CashFlowStatement))
	})

	t.Run("writes nothing when no statement is found", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "financial_tables")
		e := &extract.Extractor{
			Source: stringSource(document(smallTable(), unmatchedTable())),
			Parser: goquery.NewParser(),
			Store:  fs.NewCSVStore(dir),
		}

		_, err := e.Extract(context.Background(), "10k.htm", nil)

		require.NoError(t, err)
		assert.NoDirExists(t, dir)
		assert.NoDirExists(t, dir+".tmp")
	})
}

func TestExtractor_Process(t *testing.T) {
	t.Parallel()

	t.Run("isolates panicking table as fault", func(t *testing.T) {
		t.Parallel()

		fragments := parse(t, document(unmatchedTable(), balanceSheet()))
		broken := &mock.Fragment{
			CaptionFn: func() (string, bool) {
				panic("malformed markup")
			},
		}
		fragments = []finstmt.Fragment{fragments[0], broken, fragments[1]}

		result, err := (&extract.Extractor{}).Process(context.Background(), fragments, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Scanned)
		require.Len(t, result.Faults, 1)
		fault := result.Faults[0]
		assert.Equal(t, 1, fault.Index)
		assert.Equal(t, "table_1", fault.Identity)
		assert.Equal(t, finstmt.EINTERNAL, finstmt.ErrorCode(fault.Err))
		assert.Contains(t, fault.Error(), "malformed markup")

		require.Contains(t, result.Tables, finstmt.BalanceSheet)
		assert.Equal(t, 2, result.Matches[finstmt.BalanceSheet][0].Index)
	})

	t.Run("keeps identity of fragment failing after identification", func(t *testing.T) {
		t.Parallel()

		none := func() (string, bool) { return "", false }
		broken := &mock.Fragment{
			CaptionFn:          func() (string, bool) { return "Balance Sheets", true },
			InnerHeadingFn:     none,
			PrecedingHeadingFn: none,
			HeaderSectionFn: func() ([]finstmt.Row, bool) {
				panic("bad header")
			},
		}

		result, err := (&extract.Extractor{}).Process(context.Background(), []finstmt.Fragment{broken}, nil)

		require.NoError(t, err)
		require.Len(t, result.Faults, 1)
		assert.Equal(t, "table_0_balance_sheets", result.Faults[0].Identity)
		assert.Empty(t, result.Tables)
	})

	t.Run("reports progress in document order", func(t *testing.T) {
		t.Parallel()

		fragments := parse(t, document(balanceSheet(), smallTable(), unmatchedTable()))

		var events []extract.ProgressEvent
		_, err := (&extract.Extractor{}).Process(context.Background(), fragments, func(event extract.ProgressEvent) {
			events = append(events, event)
		})

		require.NoError(t, err)
		types := make([]extract.ProgressType, len(events))
		for i, event := range events {
			types[i] = event.Type
			assert.Equal(t, 3, event.Total)
		}
		assert.Equal(t, []extract.ProgressType{
			extract.ProgressStarted,
			extract.ProgressMatched,
			extract.ProgressSkipped,
			extract.ProgressUnmatched,
			extract.ProgressFinished,
		}, types)
		assert.Equal(t, finstmt.BalanceSheet, events[1].Kind)
		assert.Equal(t, "table_0", events[1].Identity)
	})

	t.Run("produces same result concurrently", func(t *testing.T) {
		t.Parallel()

		var tables []string
		for i := 0; i < 20; i++ {
			switch i % 4 {
			case 0:
				tables = append(tables, incomeStatement(strings.Repeat("x", i), i%3))
			case 1:
				tables = append(tables, balanceSheet())
			case 2:
				tables = append(tables, smallTable())
			default:
				tables = append(tables, unmatchedTable())
			}
		}
		fragments := parse(t, document(tables...))

		var seqEvents, parEvents []extract.ProgressEvent
		sequential, err := (&extract.Extractor{}).Process(context.Background(), fragments, func(event extract.ProgressEvent) {
			seqEvents = append(seqEvents, event)
		})
		require.NoError(t, err)

		parallel, err := (&extract.Extractor{Concurrency: 4}).Process(context.Background(), fragments, func(event extract.ProgressEvent) {
			parEvents = append(parEvents, event)
		})
		require.NoError(t, err)

		assert.Equal(t, sequential, parallel)
		assert.Equal(t, seqEvents, parEvents)
	})

	t.Run("drops earlier duplicate of a matched table", func(t *testing.T) {
		t.Parallel()

		fragments := parse(t, document(
			incomeStatement("a", 0),
			incomeStatement("b", 0),
			incomeStatement("a", 0),
		))

		result, err := (&extract.Extractor{}).Process(context.Background(), fragments, nil)

		require.NoError(t, err)
		matches := result.Matches[finstmt.IncomeStatement]
		require.Len(t, matches, 2)
		assert.Equal(t, 1, matches[0].Index)
		assert.Equal(t, 2, matches[1].Index)
		assert.Equal(t, "Net sales a", result.Tables[finstmt.IncomeStatement].Rows[0][0])
	})

	t.Run("returns context error when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fragments := parse(t, document(balanceSheet()))

		_, err := (&extract.Extractor{}).Process(ctx, fragments, nil)
		require.ErrorIs(t, err, context.Canceled)

		_, err = (&extract.Extractor{Concurrency: 2}).Process(ctx, fragments, nil)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	t.Run("is equal for equal content", func(t *testing.T) {
		t.Parallel()

		a := finstmt.NewTable([]string{"a", "b"}, [][]string{{"1", "2"}})
		b := finstmt.NewTable([]string{"a", "b"}, [][]string{{"1", "2"}})

		assert.Equal(t, extract.Fingerprint(a), extract.Fingerprint(b))
	})

	t.Run("differs when cells move between rows", func(t *testing.T) {
		t.Parallel()

		a := finstmt.NewTable(nil, [][]string{{"1", "2"}, {"3", ""}})
		b := finstmt.NewTable(nil, [][]string{{"1", ""}, {"2", "3"}})

		assert.NotEqual(t, extract.Fingerprint(a), extract.Fingerprint(b))
	})

	t.Run("differs when labels differ", func(t *testing.T) {
		t.Parallel()

		a := finstmt.NewTable([]string{"a"}, [][]string{{"1"}})
		b := finstmt.NewTable([]string{"b"}, [][]string{{"1"}})

		assert.NotEqual(t, extract.Fingerprint(a), extract.Fingerprint(b))
	})
}
