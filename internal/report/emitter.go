package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"subsidy-reporter/internal/subsidy/application"
)

// Output formats reported on artifacts.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const (
	purchaseRequestDir   = "purchase-request"
	individualReportsDir = "individual-reports"
)

// FileEmitter writes a report into <root>/<start>_<end>/. Every artifact is
// rendered in memory before the first file is written, so a rendering error
// leaves the output directory untouched. Two runs for the same period write
// to the same directory and are not coordinated.
type FileEmitter struct {
	root                string
	layout              PurchaseRequestLayout
	templatePath        string
	purchaseRequestName string
	statements          *StatementTemplate
	logger              *log.Logger
}

// EmitterOption configures the emitter.
type EmitterOption func(*FileEmitter)

// WithPurchaseRequestTemplate sets the workbook template path.
func WithPurchaseRequestTemplate(path string) EmitterOption {
	return func(e *FileEmitter) { e.templatePath = path }
}

// WithPurchaseRequestLayout overrides the template cell layout.
func WithPurchaseRequestLayout(layout PurchaseRequestLayout) EmitterOption {
	return func(e *FileEmitter) { e.layout = layout }
}

// WithPurchaseRequestPrefix sets the workbook file name prefix.
func WithPurchaseRequestPrefix(prefix string) EmitterOption {
	return func(e *FileEmitter) {
		if prefix != "" {
			e.purchaseRequestName = prefix
		}
	}
}

// WithEmitterLogger sets the logger.
func WithEmitterLogger(logger *log.Logger) EmitterOption {
	return func(e *FileEmitter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewFileEmitter constructs the emitter.
func NewFileEmitter(root string, statements *StatementTemplate, opts ...EmitterOption) (*FileEmitter, error) {
	if root == "" {
		return nil, errors.New("file emitter: empty output root")
	}
	if statements == nil {
		return nil, errors.New("file emitter: nil statement template")
	}
	e := &FileEmitter{
		root:                root,
		layout:              DefaultPurchaseRequestLayout(),
		purchaseRequestName: "purchase-request-",
		statements:          statements,
		logger:              log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type pendingFile struct {
	rel    string
	format string
	data   []byte
}

// Emit renders and writes every artifact of the report.
func (e *FileEmitter) Emit(ctx context.Context, r application.Report) (application.Artifacts, error) {
	files, err := e.render(ctx, r)
	if err != nil {
		return application.Artifacts{}, err
	}

	periodDir := filepath.Join(e.root, r.Window.Key())
	for _, dir := range []string{periodDir, filepath.Join(periodDir, purchaseRequestDir), filepath.Join(periodDir, individualReportsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return application.Artifacts{}, fmt.Errorf("create output dir: %w", err)
		}
	}

	artifacts := application.Artifacts{Root: periodDir}
	written := make(map[string]struct{}, len(files))
	for _, file := range files {
		path := filepath.Join(periodDir, file.rel)
		if err := os.WriteFile(path, file.data, 0o644); err != nil {
			return artifacts, fmt.Errorf("write %s: %w", file.rel, err)
		}
		written[path] = struct{}{}
		artifacts.Files = append(artifacts.Files, application.Artifact{Format: file.format, Path: path})
	}
	if err := removeStale(filepath.Join(periodDir, individualReportsDir), written); err != nil {
		return artifacts, err
	}
	e.logger.Printf("report written: dir=%s files=%d", periodDir, len(artifacts.Files))
	return artifacts, nil
}

func (e *FileEmitter) render(ctx context.Context, r application.Report) ([]pendingFile, error) {
	key := r.Window.Key()
	var files []pendingFile

	summary, err := BuildSubsidyCSV(r)
	if err != nil {
		return nil, fmt.Errorf("build subsidy report: %w", err)
	}
	files = append(files, pendingFile{rel: "subsidy-report-" + key + ".csv", format: FormatCSV, data: summary})

	if r.Readings != nil {
		snapshot, err := BuildSensorSnapshotCSV(r.Readings)
		if err != nil {
			return nil, fmt.Errorf("build sensor snapshot: %w", err)
		}
		files = append(files, pendingFile{rel: "sensor-data-" + key + ".csv", format: FormatCSV, data: snapshot})
	}

	accounts, err := BuildPurchaseRequestCSV(r)
	if err != nil {
		return nil, fmt.Errorf("build account subsidies: %w", err)
	}
	files = append(files, pendingFile{
		rel:    filepath.Join(purchaseRequestDir, "account-subsidies-"+key+".csv"),
		format: FormatCSV,
		data:   accounts,
	})

	var template []byte
	if e.templatePath != "" {
		template, err = os.ReadFile(e.templatePath)
		if err != nil {
			return nil, fmt.Errorf("read purchase request template: %w", err)
		}
	}
	workbook, err := BuildPurchaseRequestXLSX(r, e.layout, template)
	if err != nil {
		return nil, fmt.Errorf("build purchase request: %w", err)
	}
	files = append(files, pendingFile{
		rel:    filepath.Join(purchaseRequestDir, e.purchaseRequestName+r.GeneratedAt.Format("20060102")+".xlsx"),
		format: FormatXLSX,
		data:   workbook,
	})

	for _, row := range r.Subsidies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := e.statements.BuildStatementPDF(r, row)
		if err != nil {
			return nil, err
		}
		files = append(files, pendingFile{
			rel:    filepath.Join(individualReportsDir, row.Participant.Filename+"-report-"+key+".pdf"),
			format: FormatPDF,
			data:   doc,
		})
	}
	return files, nil
}

// removeStale deletes statements left by an earlier run of the same period.
// It runs after every write succeeded; files in keep are left alone.
func removeStale(dir string, keep map[string]struct{}) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list statements: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "."+FormatPDF) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, ok := keep[path]; ok {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove stale statement: %w", err)
		}
	}
	return nil
}
