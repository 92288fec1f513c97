// Package http provides the REST handlers of the contract workspace.
//
// Each handler exposes a Routes method returning a chi.Router that the
// application mounts under /api:
//
//	/api/imports    POST multipart "file" (.xlsx, .xls, .csv)
//	/api/zones      GET list, GET /{zoneID}, GET /{zoneID}/export.csv
//	/api/analytics  GET ?mode=BONUS|GIF&date=DD/MM/YYYY, GET /export.csv
//	/api/receipts   GET, POST, DELETE
//	/api/health     GET, GET /live
//
// JSON responses wrap their payload as {"status":"success","data":...}.
// Failures are written as RFC 7807 problem documents by the shared
// errors.ErrorHandler.
package http
