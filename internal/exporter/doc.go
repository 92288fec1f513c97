// Package exporter writes compliance analytics as CSV.
//
// Exports start with a UTF-8 byte order mark so spreadsheet tools detect
// the encoding of accented zone names. Numbers use a dot decimal separator
// and two decimals.
package exporter
