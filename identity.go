package finstmt

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxTitleLength is the maximum length, in characters, of a cleaned title.
const MaxTitleLength = 50

var (
	spaceRe   = regexp.MustCompile(`[\s\p{Z}]+`)
	nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_]`)
)

// CleanTitle makes a title safe for use as a file name or map key.
// Whitespace runs become a single underscore, non-word characters are
// removed, and the result is truncated and lower-cased.
func CleanTitle(title string) string {
	title = spaceRe.ReplaceAllString(title, "_")
	title = nonWordRe.ReplaceAllString(title, "")
	if r := []rune(title); len(r) > MaxTitleLength {
		title = string(r[:MaxTitleLength])
	}
	return strings.ToLower(title)
}

// Identify returns a human-readable label for the table at index.
// The label is derived from the first non-empty of the table's caption,
// a heading inside the table, or the nearest preceding heading, and falls
// back to "table_<index>". Identity is metadata only; it never influences
// classification.
func Identify(f Fragment, index int) string {
	prefix := "table_" + strconv.Itoa(index)
	if f == nil {
		return prefix
	}

	for _, query := range []func() (string, bool){
		f.Caption,
		f.InnerHeading,
		f.PrecedingHeading,
	} {
		if title, ok := query(); ok {
			if title = strings.TrimSpace(title); title != "" {
				return prefix + "_" + CleanTitle(title)
			}
		}
	}
	return prefix
}
