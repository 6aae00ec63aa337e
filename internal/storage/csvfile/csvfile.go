// Package csvfile writes trial records as a CSV table, one row per trial.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cory-johannsen/raidsim/internal/trial"
)

// Writer is a trial.Sink that writes a CSV file at a fixed path.
type Writer struct {
	path string
}

var _ trial.Sink = (*Writer)(nil)

// NewWriter creates a Writer for path. The file is created or truncated on Write.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the output path.
func (w *Writer) Path() string { return w.path }

// Write implements trial.Sink.
func (w *Writer) Write(ctx context.Context, run trial.Run, records []trial.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %q: %w", w.path, err)
	}
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", w.path, err)
	}
	if err := Encode(f, run.Participants, records); err != nil {
		f.Close()
		return fmt.Errorf("writing %q: %w", w.path, err)
	}
	return f.Close()
}

// Header returns the column names for participants names:
// iter, ticks_until_defeat, <name>_dmg_percent per participant, proc_percent, result.
func Header(names []string) []string {
	h := []string{"iter", "ticks_until_defeat"}
	for _, n := range names {
		h = append(h, column(n)+"_dmg_percent")
	}
	return append(h, "proc_percent", "result")
}

func column(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Encode writes the header for names and one row per record to out. The
// header is the same with or without records.
func Encode(out io.Writer, names []string, records []trial.Record) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Header(names)); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{strconv.Itoa(r.Trial), strconv.Itoa(r.Ticks)}
		for i := range names {
			pct := 0.0
			if i < len(r.DamagePercent) {
				pct = r.DamagePercent[i]
			}
			row = append(row, formatFloat(pct))
		}
		row = append(row, formatFloat(r.BossHPPercent), r.Result)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
