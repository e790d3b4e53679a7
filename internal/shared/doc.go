// Package shared holds helpers used across packages that belong to no
// single domain layer.
//
// The testutil subpackage provides the sample procurement sheet used by
// the analysis, service, HTTP and CLI tests, plus a buffered slog handler
// for asserting on log output:
//
//	logger, logs := testutil.NewTestLogger(t)
//	table := testutil.ProcurementTable()
package shared
