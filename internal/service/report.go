// internal/service/report.go
package service

import (
	"bytes"
	"errors"

	"github.com/shopspring/decimal"

	"epl2-service/internal/model"
	"epl2-service/pkg/epl2"
)

var mmPerInch = decimal.RequireFromString("25.4")

// Analysis is the outcome of one decode pass over a job
type Analysis struct {
	Items  []epl2.Item
	Report *model.JobReport
}

// Commands returns the successfully decoded commands in stream order
func (a *Analysis) Commands() []epl2.Command {
	cmds, _ := epl2.Commands(a.Items)
	return cmds
}

// Status classifies the pass for persistence
func (a *Analysis) Status() model.JobStatus {
	switch {
	case a.Report.ErrorCount == 0:
		return model.JobStatusDecoded
	case a.Report.CommandCount == 0:
		return model.JobStatusFailed
	default:
		return model.JobStatusPartial
	}
}

// Analyze decodes data and summarizes the result. dpi converts form sizes to
// physical units.
func Analyze(data []byte, policy epl2.RecoveryPolicy, dpi int) *Analysis {
	return AnalyzeStream(data, policy, dpi, nil)
}

// AnalyzeStream is Analyze with onItem called for each item as it is decoded
func AnalyzeStream(data []byte, policy epl2.RecoveryPolicy, dpi int, onItem func(epl2.Item)) *Analysis {
	d := epl2.NewDecoder(data, epl2.WithRecovery(policy))
	report := &model.JobReport{
		Recovery:       policy.String(),
		CommandsByKind: make(map[string]int),
		Diagnostics:    []model.Diagnostic{},
	}

	var (
		items []epl2.Item
		form  formTracker
	)
	lines := newLineIndex(data)
	for {
		item, ok := d.Next()
		if !ok {
			break
		}
		items = append(items, item)
		if onItem != nil {
			onItem(item)
		}

		if item.Err != nil {
			report.ErrorCount++
			report.Diagnostics = append(report.Diagnostics, diagnose(item, lines))
			continue
		}

		report.CommandCount++
		report.CommandsByKind[item.Command.Kind().String()]++

		switch cmd := item.Command.(type) {
		case *epl2.AsciiText:
			report.TextFields++
		case *epl2.BarCodeStandard, *epl2.BarCode2D:
			report.Barcodes++
		case *epl2.Graphics:
			report.GraphicsBytes += len(cmd.Data)
		case *epl2.Print:
			report.Labels += cmd.Sets * cmd.Copies
		case *epl2.SetFormWidth:
			form.width = cmd.Width
		case *epl2.SetFormLength:
			form.length = cmd.Length
			form.gap = cmd.Gap
		}
	}

	report.Truncated = d.Halted()
	report.BytesDecoded = int(d.Position())
	if report.Truncated && len(report.Diagnostics) > 0 {
		report.Diagnostics[len(report.Diagnostics)-1].Fatal = true
	}
	report.Form = form.dimensions(dpi)

	return &Analysis{Items: items, Report: report}
}

// diagnose turns a failed item into a report entry
func diagnose(item epl2.Item, lines lineIndex) model.Diagnostic {
	diag := model.Diagnostic{
		Line:          lines.lineOf(int(item.Pos)),
		CommandOffset: int(item.Pos),
		ErrorOffset:   int(item.Pos),
		Message:       item.Err.Error(),
	}

	var de *epl2.DecodeError
	if errors.As(item.Err, &de) {
		diag.ErrorOffset = int(de.Pos)
		diag.Kind = de.Kind.String()
		diag.Field = de.Field
		diag.Value = de.Value
		diag.Token = de.Token
	}
	return diag
}

type formTracker struct {
	width, length, gap int
}

func (f formTracker) dimensions(dpi int) *model.LabelDimensions {
	if (f.width == 0 && f.length == 0) || dpi <= 0 {
		return nil
	}
	return &model.LabelDimensions{
		DPI:          dpi,
		WidthDots:    f.width,
		LengthDots:   f.length,
		GapDots:      f.gap,
		WidthInches:  dotsToInches(f.width, dpi),
		LengthInches: dotsToInches(f.length, dpi),
		WidthMM:      dotsToMM(f.width, dpi),
		LengthMM:     dotsToMM(f.length, dpi),
	}
}

func dotsToInches(dots, dpi int) decimal.Decimal {
	return decimal.NewFromInt(int64(dots)).Div(decimal.NewFromInt(int64(dpi))).Round(2)
}

func dotsToMM(dots, dpi int) decimal.Decimal {
	return decimal.NewFromInt(int64(dots)).Mul(mmPerInch).Div(decimal.NewFromInt(int64(dpi))).Round(1)
}

// lineIndex maps byte offsets to 1-based line numbers
type lineIndex []int

func newLineIndex(data []byte) lineIndex {
	idx := lineIndex{0}
	for off := 0; ; {
		i := bytes.IndexByte(data[off:], '\n')
		if i < 0 {
			return idx
		}
		off += i + 1
		idx = append(idx, off)
	}
}

func (l lineIndex) lineOf(off int) int {
	lo, hi := 0, len(l)
	for lo < hi {
		mid := (lo + hi) / 2
		if l[mid] <= off {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
