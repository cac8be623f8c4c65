// Package finstmt extracts financial statements (balance sheet, income
// statement, cash-flow statement) from HTML and inline XBRL filings.
// It scans every table in a document, normalizes each into a rectangular
// dataset, and classifies it by the boilerplate line items that reporting
// conventions require of each statement.
//
// This package contains domain types, interfaces and the pure decision
// logic following Ben Johnson's Standard Package Layout. Implementations
// live in subdirectories named after their primary dependency
// (e.g., goquery/, sqlite/, fs/).
package finstmt
