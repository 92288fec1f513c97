package importer

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"contractpulse/internal/sheet"
	"contractpulse/pkg/contracts/domain"
)

const tracerName = "contractpulse/importer"

// Options configures an Importer
type Options struct {
	HeaderWindow int
	Expander     *Expander
	Logger       *slog.Logger
}

// Importer turns decoded spreadsheets into zone records
type Importer struct {
	window   int
	expander *Expander
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates an importer. Zero options fall back to defaults.
func New(opts Options) *Importer {
	if opts.HeaderWindow <= 0 {
		opts.HeaderWindow = DefaultHeaderWindow
	}
	if opts.Expander == nil {
		opts.Expander = DefaultExpander()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Importer{
		window:   opts.HeaderWindow,
		expander: opts.Expander,
		logger:   opts.Logger.With(slog.String("component", "importer")),
		tracer:   otel.Tracer(tracerName),
	}
}

// ImportFile decodes a raw upload and imports its first sheet
func (im *Importer) ImportFile(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	ctx, span := im.tracer.Start(ctx, "importer.decode",
		trace.WithAttributes(attribute.String("file.name", filename)))
	rows, err := sheet.Decode(filename, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		im.logger.WarnContext(ctx, "spreadsheet rejected",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return nil, err
	}
	span.SetAttributes(attribute.Int("sheet.rows", len(rows)))
	span.End()

	return im.Import(ctx, rows)
}

// Import maps columns, normalizes every data row and aggregates the
// surviving rows into zones. Per-row problems are counted, never returned.
func (im *Importer) Import(ctx context.Context, rows domain.Sheet) (*domain.ImportResult, error) {
	ctx, span := im.tracer.Start(ctx, "importer.import",
		trace.WithAttributes(attribute.Int("sheet.rows", len(rows))))
	defer span.End()

	mapping, detected := MapColumns(rows, im.window)
	im.logger.DebugContext(ctx, "column mapping resolved",
		slog.Bool("header_detected", detected),
		slog.Any("mapping", mapping))

	normalizer := NewNormalizer(mapping)
	aggregator := NewAggregator(im.expander)

	scanned := 0
	for i := mapping.DataStart; i < len(rows); i++ {
		if rows[i] == nil {
			continue
		}
		scanned++
		row, outcome := normalizer.Normalize(i, rows[i])
		if outcome != RowAccepted {
			continue
		}
		aggregator.Add(row)
	}

	if normalizer.ValidRows() == 0 {
		err := &EmptyResultError{
			ValidRows:     0,
			DuplicateRows: normalizer.DuplicateRows(),
			SkippedRows:   normalizer.SkippedRows(),
			ScannedRows:   scanned,
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		im.logger.WarnContext(ctx, "import produced no valid rows",
			slog.Int("scanned_rows", scanned),
			slog.Int("duplicate_rows", err.DuplicateRows))
		return nil, err
	}

	zones := aggregator.Zones()
	routes := 0
	for _, z := range zones {
		routes += len(z.Routes)
	}

	result := &domain.ImportResult{
		Zones:             zones,
		ValidRowCount:     normalizer.ValidRows(),
		DuplicateRowCount: normalizer.DuplicateRows(),
		RouteCount:        routes,
		HeaderDetected:    detected,
	}

	span.SetAttributes(
		attribute.Int("import.valid_rows", result.ValidRowCount),
		attribute.Int("import.duplicate_rows", result.DuplicateRowCount),
		attribute.Int("import.zones", len(zones)),
	)
	im.logger.InfoContext(ctx, "spreadsheet imported",
		slog.Int("zones", len(zones)),
		slog.Int("valid_rows", result.ValidRowCount),
		slog.Int("duplicate_rows", result.DuplicateRowCount),
		slog.Int("skipped_rows", normalizer.SkippedRows()))

	return result, nil
}
