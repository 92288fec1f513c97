package http

import (
	"context"
	"io"
	"time"

	"contractpulse/internal/receipts"
	"contractpulse/internal/services"
	"contractpulse/pkg/contracts/domain"
)

// ImportService accepts spreadsheet uploads
type ImportService interface {
	Import(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)
}

// ZoneService serves the zones of the current workspace
type ZoneService interface {
	Zones(ctx context.Context) []domain.OriginZone
	Detail(ctx context.Context, id string) (domain.ZoneDetail, error)
}

// AnalyticsService computes compliance analytics
type AnalyticsService interface {
	Analytics(ctx context.Context, mode domain.ComplianceMode, ref time.Time) (domain.AnalyticsResult, error)
}

// ReceiptService manages the receipt ledger
type ReceiptService interface {
	RegisterReceipts(ctx context.Context, subs []receipts.Submission) ([]domain.Receipt, domain.ReceiptStats)
	DeleteReceipts(ctx context.Context, ids []string) ([]domain.Receipt, domain.ReceiptStats)
	Receipts(ctx context.Context) services.ReceiptsView
}

// WorkspaceService is everything the API needs from the workspace
type WorkspaceService interface {
	ImportService
	ZoneService
	AnalyticsService
	ReceiptService
}
