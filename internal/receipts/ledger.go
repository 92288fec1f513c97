// Package receipts keeps the ledger of freight receipts extracted from PDFs.
// Every counted receipt adds one realized load to the route it maps to.
package receipts

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"contractpulse/pkg/contracts/domain"
)

// Submission is a receipt as delivered by the extraction collaborator
type Submission struct {
	FileName        string `json:"file_name" validate:"required,max=255"`
	ExtractionID    string `json:"extraction_id" validate:"required,max=128"`
	OriginCity      string `json:"origin_city" validate:"max=128"`
	DestinationCity string `json:"destination_city" validate:"max=128"`
	ZoneID          string `json:"zone_id,omitempty" validate:"max=64"`
}

// Ledger records receipts and applies their realized loads to zones.
// Zone slices passed to its methods are updated in place; callers
// serialize access to them.
type Ledger struct {
	mu       sync.RWMutex
	receipts []domain.Receipt
	seen     map[string]struct{}
	now      func() time.Time
	newID    func() string
}

// Option customizes a Ledger
type Option func(*Ledger)

// WithClock sets the clock used to stamp receipts
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator sets the receipt id generator
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// NewLedger creates an empty ledger
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		seen:  make(map[string]struct{}),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register records submissions in order. A submission whose extraction id
// is already in the ledger is kept but flagged duplicate and never counted.
func (l *Ledger) Register(zones []domain.OriginZone, subs []Submission) []domain.Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := make([]domain.Receipt, 0, len(subs))
	for _, s := range subs {
		key := extractionKey(s.ExtractionID)
		_, dup := l.seen[key]
		l.seen[key] = struct{}{}

		r := domain.Receipt{
			ID:              l.newID(),
			FileName:        s.FileName,
			ExtractionID:    strings.TrimSpace(s.ExtractionID),
			OriginCity:      strings.TrimSpace(s.OriginCity),
			DestinationCity: strings.TrimSpace(s.DestinationCity),
			ZoneID:          strings.TrimSpace(s.ZoneID),
			RequestedZoneID: strings.TrimSpace(s.ZoneID),
			IsDuplicate:     dup,
			UploadedAt:      l.now(),
		}
		bind(zones, &r)
		if r.Counted() {
			adjust(zones, r, 1)
		}
		l.receipts = append(l.receipts, r)
		added = append(added, r)
	}
	return added
}

// Delete removes receipts by id and revokes their loads. Unknown ids are
// ignored. It returns the removed receipts.
func (l *Ledger) Delete(zones []domain.OriginZone, ids []string) []domain.Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	var removed []domain.Receipt
	kept := l.receipts[:0]
	for _, r := range l.receipts {
		if _, ok := drop[r.ID]; !ok {
			kept = append(kept, r)
			continue
		}
		if r.Counted() {
			adjust(zones, r, -1)
		}
		removed = append(removed, r)
	}
	l.receipts = kept

	l.seen = make(map[string]struct{}, len(l.receipts))
	for _, r := range l.receipts {
		l.seen[extractionKey(r.ExtractionID)] = struct{}{}
	}
	return removed
}

// Rebind maps every receipt onto a freshly imported zone list and applies
// the counted loads to it.
func (l *Ledger) Rebind(zones []domain.OriginZone) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.receipts {
		r := &l.receipts[i]
		r.ZoneID = r.RequestedZoneID
		r.RouteID = ""
		bind(zones, r)
		if r.Counted() {
			adjust(zones, *r, 1)
		}
	}
}

// List returns a copy of the ledger in registration order
func (l *Ledger) List() []domain.Receipt {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Receipt, len(l.receipts))
	copy(out, l.receipts)
	return out
}

// Stats summarizes the ledger
func (l *Ledger) Stats() domain.ReceiptStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := domain.ReceiptStats{Total: len(l.receipts)}
	for _, r := range l.receipts {
		switch {
		case r.IsDuplicate:
			stats.Duplicates++
		case r.RouteID == "":
			stats.Unmapped++
		default:
			stats.ValidLoads++
		}
	}
	return stats
}

func extractionKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
