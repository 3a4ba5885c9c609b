// Package report renders the signals and exits of a run as JSON and PDF files.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"

	apperr "SwingSentinel/internal/errors"
	"SwingSentinel/internal/model"
)

const (
	SignalsJSON = "signals.json"
	SignalsPDF  = "signals.pdf"
	ExitsJSON   = "exits.json"
	ExitsPDF    = "exits.pdf"
)

type signalsDoc struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Signals     []model.Classification `json:"signals"`
}

type exitsDoc struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Exits       []model.ExitEvent `json:"exits"`
}

// Writer writes report artifacts into one directory, replacing the previous run's.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write renders signals every run. Exit artifacts are written when exits is
// non-empty and removed otherwise, so a stale exit report never survives a
// run without exits. Failures carry CodeReportFailure.
func (w *Writer) Write(at time.Time, signals []model.Classification, exits []model.ExitEvent) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return apperr.Wrap(apperr.CodeReportFailure, "create report dir", err)
	}
	if signals == nil {
		signals = []model.Classification{}
	}

	if len(exits) == 0 {
		if err := w.removeExits(); err != nil {
			return err
		}
	}

	if err := w.writeJSON(SignalsJSON, signalsDoc{GeneratedAt: at, Signals: signals}); err != nil {
		return err
	}
	if err := w.writePDF(SignalsPDF, signalsPDF(at, signals)); err != nil {
		return err
	}

	if len(exits) == 0 {
		return nil
	}
	if err := w.writeJSON(ExitsJSON, exitsDoc{GeneratedAt: at, Exits: exits}); err != nil {
		return err
	}
	return w.writePDF(ExitsPDF, exitsPDF(at, exits))
}

func (w *Writer) removeExits() error {
	for _, name := range []string{ExitsJSON, ExitsPDF} {
		if err := os.Remove(filepath.Join(w.dir, name)); err != nil && !os.IsNotExist(err) {
			return apperr.Wrapf(apperr.CodeReportFailure, err, "remove stale %s", name)
		}
	}
	return nil
}

func (w *Writer) writeJSON(name string, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.Wrapf(apperr.CodeReportFailure, err, "encode %s", name)
	}
	return w.replace(name, data)
}

func (w *Writer) writePDF(name string, doc pdfDoc) error {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return apperr.Wrapf(apperr.CodeReportFailure, err, "render %s", name)
	}
	return w.replace(name, buf.Bytes())
}

// replace writes data next to the target and renames it into place.
func (w *Writer) replace(name string, data []byte) error {
	target := filepath.Join(w.dir, name)
	tmp := fmt.Sprintf("%s.%d.tmp", target, os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.Wrapf(apperr.CodeReportFailure, err, "write %s", name)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return apperr.Wrapf(apperr.CodeReportFailure, err, "rename %s", name)
	}
	return nil
}
