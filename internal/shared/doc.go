// Package shared groups helpers that several packages use but that belong
// to no single layer.
//
// The testutil subpackage holds test-only helpers:
//
//   - NewLogCapture returns a *slog.Logger whose records can be asserted on.
//   - ContractsCSV, ContractRows and ContractsWorkbook provide the reference
//     contract spreadsheet in csv and xlsx form.
//
// Example:
//
//	logger, logs := testutil.NewLogCapture(t)
//	svc := services.NewWorkspaceService(services.WorkspaceDeps{Importer: imp, Logger: logger})
//	...
//	testutil.RequireEntry(t, logs, "workspace replaced")
package shared
