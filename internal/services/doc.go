// Package services implements the business layer between the HTTP
// handlers and the import, compliance and receipt packages.
//
// WorkspaceService owns the zone list of the most recent import. Each
// successful import replaces it wholesale; a rejected import leaves the
// previous zones untouched. Receipts registered in the ledger survive
// imports and are re-applied to the new zones.
//
// All methods are safe for concurrent use by HTTP handlers. Reads take a
// shared lock and return deep copies, so callers may mutate what they get.
//
// HealthService reports process and workspace health for /api/health.
package services
