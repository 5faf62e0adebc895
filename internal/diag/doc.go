// Package diag defines the diagnostic model shared by all phases.
//
// Producers never format or print: they report through a Reporter (usually a
// BagReporter, optionally wrapped in a DedupReporter) and the driver renders
// the collected Bag with FormatShort. Codes are grouped by phase (LEX, SYN,
// SEM, IO, PRJ, GEN) and their numeric values are stable.
package diag
