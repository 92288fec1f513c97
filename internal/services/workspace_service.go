package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"contractpulse/internal/compliance"
	"contractpulse/internal/importer"
	"contractpulse/internal/infrastructure"
	"contractpulse/internal/receipts"
	"contractpulse/pkg/contracts/domain"
	"contractpulse/pkg/contracts/events"
)

// SpreadsheetImporter turns an uploaded file into zones
type SpreadsheetImporter interface {
	ImportFile(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)
}

// Broadcaster publishes workspace events to live dashboards
type Broadcaster interface {
	Broadcast(ctx context.Context, eventType string, data interface{})
}

// WorkspaceDeps are the collaborators of a WorkspaceService
type WorkspaceDeps struct {
	Importer    SpreadsheetImporter
	Ledger      *receipts.Ledger
	Broadcaster Broadcaster
	Metrics     *infrastructure.BusinessMetrics
	Logger      *slog.Logger
	Now         func() time.Time
}

// WorkspaceService holds the zones of the latest import in memory. Each
// import replaces them wholesale and nothing is persisted.
type WorkspaceService struct {
	mu       sync.RWMutex
	zones    []domain.OriginZone
	imported bool

	importer    SpreadsheetImporter
	ledger      *receipts.Ledger
	broadcaster Broadcaster
	metrics     *infrastructure.BusinessMetrics
	logger      *slog.Logger
	now         func() time.Time
}

// ReceiptsView is the ledger together with its stats
type ReceiptsView struct {
	Receipts []domain.Receipt   `json:"receipts"`
	Stats    domain.ReceiptStats `json:"stats"`
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(context.Context, string, interface{}) {}

// NewWorkspaceService creates an empty workspace
func NewWorkspaceService(deps WorkspaceDeps) *WorkspaceService {
	if deps.Ledger == nil {
		deps.Ledger = receipts.NewLedger()
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = nopBroadcaster{}
	}
	if deps.Logger == nil {
		deps.Logger = infrastructure.GetLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &WorkspaceService{
		zones:       []domain.OriginZone{},
		importer:    deps.Importer,
		ledger:      deps.Ledger,
		broadcaster: deps.Broadcaster,
		metrics:     deps.Metrics,
		logger:      deps.Logger.With(slog.String("service", "workspace")),
		now:         deps.Now,
	}
}

// Import decodes and imports a spreadsheet. On success the workspace zones
// are replaced and registered receipts are re-applied to them. On failure
// the previous zones stay in place.
func (s *WorkspaceService) Import(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	start := time.Now()
	result, err := s.importer.ImportFile(ctx, filename, r)
	if err != nil {
		s.recordImportFailure(ctx, filename, err, time.Since(start))
		return nil, err
	}

	zones := domain.CloneZones(result.Zones)

	s.mu.Lock()
	s.ledger.Rebind(zones)
	s.zones = zones
	s.imported = true
	result.Zones = domain.CloneZones(zones)
	s.mu.Unlock()

	s.metrics.RecordImport(ctx, "success", result.ValidRowCount, result.DuplicateRowCount, len(zones), time.Since(start))
	s.logger.InfoContext(ctx, "workspace replaced",
		slog.String("file", filename),
		slog.Int("zones", len(zones)),
		slog.Int("routes", result.RouteCount),
		slog.Int("valid_rows", result.ValidRowCount),
		slog.Int("duplicate_rows", result.DuplicateRowCount))

	s.broadcaster.Broadcast(ctx, events.TypeZonesReplaced, events.ZonesReplaced{
		FileName:          filename,
		ZoneCount:         len(zones),
		RouteCount:        result.RouteCount,
		ValidRowCount:     result.ValidRowCount,
		DuplicateRowCount: result.DuplicateRowCount,
	})
	return result, nil
}

func (s *WorkspaceService) recordImportFailure(ctx context.Context, filename string, err error, d time.Duration) {
	var empty *importer.EmptyResultError
	if errors.As(err, &empty) {
		s.metrics.RecordImport(ctx, "empty", 0, empty.DuplicateRows, 0, d)
	} else {
		s.metrics.RecordImport(ctx, "rejected", 0, 0, 0, d)
	}
	s.logger.WarnContext(ctx, "import rejected",
		slog.String("file", filename),
		slog.String("error", err.Error()))
}

// Zones returns a copy of the current zones, sorted by name
func (s *WorkspaceService) Zones(ctx context.Context) []domain.OriginZone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneZones(s.zones)
}

// Zone returns one zone by id
func (s *WorkspaceService) Zone(ctx context.Context, id string) (domain.OriginZone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, z := range s.zones {
		if z.ID == id {
			return z.Clone(), nil
		}
	}
	return domain.OriginZone{}, domain.ErrZoneNotFound
}

// Analytics computes network compliance for mode at ref. A zero ref means now.
func (s *WorkspaceService) Analytics(ctx context.Context, mode domain.ComplianceMode, ref time.Time) (domain.AnalyticsResult, error) {
	if ref.IsZero() {
		ref = s.now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.imported {
		return domain.AnalyticsResult{}, domain.ErrNoZones
	}

	start := time.Now()
	result := compliance.Compute(s.zones, mode, ref)
	s.metrics.RecordAnalytics(ctx, string(mode), time.Since(start))
	return result, nil
}

// Detail returns the drill-down view of one zone
func (s *WorkspaceService) Detail(ctx context.Context, id string) (domain.ZoneDetail, error) {
	zone, err := s.Zone(ctx, id)
	if err != nil {
		return domain.ZoneDetail{}, err
	}
	return compliance.Detail(zone), nil
}

// RegisterReceipts records extracted receipts and applies their loads
func (s *WorkspaceService) RegisterReceipts(ctx context.Context, subs []receipts.Submission) ([]domain.Receipt, domain.ReceiptStats) {
	s.mu.Lock()
	added := s.ledger.Register(s.zones, subs)
	s.mu.Unlock()

	for _, r := range added {
		s.metrics.RecordReceipt(ctx, classify(r))
	}
	stats := s.ledger.Stats()
	s.logger.InfoContext(ctx, "receipts registered",
		slog.Int("count", len(added)),
		slog.Int("valid_loads", stats.ValidLoads),
		slog.Int("duplicates", stats.Duplicates))

	s.broadcaster.Broadcast(ctx, events.TypeReceiptsChanged, events.ReceiptsChanged{
		Added: len(added),
		Stats: stats,
	})
	return added, stats
}

// DeleteReceipts removes receipts by id and revokes their loads
func (s *WorkspaceService) DeleteReceipts(ctx context.Context, ids []string) ([]domain.Receipt, domain.ReceiptStats) {
	s.mu.Lock()
	removed := s.ledger.Delete(s.zones, ids)
	s.mu.Unlock()

	stats := s.ledger.Stats()
	s.logger.InfoContext(ctx, "receipts deleted",
		slog.Int("requested", len(ids)),
		slog.Int("removed", len(removed)))

	if len(removed) > 0 {
		s.broadcaster.Broadcast(ctx, events.TypeReceiptsChanged, events.ReceiptsChanged{
			Removed: len(removed),
			Stats:   stats,
		})
	}
	return removed, stats
}

// Receipts returns the ledger and its stats
func (s *WorkspaceService) Receipts(ctx context.Context) ReceiptsView {
	return ReceiptsView{
		Receipts: s.ledger.List(),
		Stats:    s.ledger.Stats(),
	}
}

// Stats reports the workspace size for health checks
func (s *WorkspaceService) Stats() (zones, receiptCount int) {
	s.mu.RLock()
	zones = len(s.zones)
	s.mu.RUnlock()
	return zones, s.ledger.Stats().Total
}

func classify(r domain.Receipt) string {
	switch {
	case r.IsDuplicate:
		return "duplicate"
	case r.RouteID == "":
		return "unmapped"
	default:
		return "counted"
	}
}
