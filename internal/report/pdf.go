// internal/report/pdf.go
package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
	"strconv"

	"github.com/go-pdf/fpdf"

	"epl2-service/internal/model"
	"epl2-service/pkg/epl2"
)

// MaxGraphicsPreviews caps how many GW bitmaps are drawn into one report
const MaxGraphicsPreviews = 8

const (
	pageWidthMM   = 210.0
	marginMM      = 15.0
	contentWidth  = pageWidthMM - 2*marginMM
	lineHeight    = 6.0
	mmPerInch     = 25.4
	maxMessageLen = 90
)

// GeneratePDF renders a job's inspection report. graphics are drawn as
// previews at dpi; pass nil to skip them.
func GeneratePDF(job *model.PrintJob, graphics []*epl2.Graphics, dpi int) ([]byte, error) {
	if job == nil || job.Report == nil {
		return nil, fmt.Errorf("no report to render")
	}
	if dpi <= 0 {
		dpi = 203
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("EPL2 job "+job.ID.String(), true)
	pdf.SetCreator("epl2-service", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidth, 10, tr(job.Name), "", 1, "L", false, 0, "")

	r := job.Report
	writeSection(pdf, "Summary")
	summary := [][2]string{
		{"Job ID", job.ID.String()},
		{"Status", string(job.Status)},
		{"Size", strconv.Itoa(job.SizeBytes) + " bytes"},
		{"Created", job.CreatedAt.Format("2006-01-02 15:04:05 MST")},
		{"Recovery", r.Recovery},
		{"Commands", strconv.Itoa(r.CommandCount)},
		{"Errors", strconv.Itoa(r.ErrorCount)},
		{"Labels", strconv.Itoa(r.Labels)},
		{"Bytes decoded", strconv.Itoa(r.BytesDecoded)},
	}
	if r.Truncated {
		summary = append(summary, [2]string{"Truncated", "yes, decoding stopped early"})
	}
	if f := r.Form; f != nil {
		summary = append(summary, [2]string{"Form", fmt.Sprintf("%d x %d dots at %d dpi (%s x %s in, %s x %s mm)",
			f.WidthDots, f.LengthDots, f.DPI, f.WidthInches, f.LengthInches, f.WidthMM, f.LengthMM)})
	}
	if job.ForwardTarget != nil {
		summary = append(summary, [2]string{"Forwarded to", *job.ForwardTarget})
	}
	writeKeyValues(pdf, tr, summary)

	if len(r.CommandsByKind) > 0 {
		writeSection(pdf, "Commands by kind")
		kinds := make([]string, 0, len(r.CommandsByKind))
		for k := range r.CommandsByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		rows := make([][2]string, len(kinds))
		for i, k := range kinds {
			rows[i] = [2]string{k, strconv.Itoa(r.CommandsByKind[k])}
		}
		writeKeyValues(pdf, tr, rows)
	}

	if len(r.Diagnostics) > 0 {
		writeSection(pdf, "Diagnostics")
		writeDiagnostics(pdf, tr, r.Diagnostics)
	}

	if len(graphics) > 0 {
		writeSection(pdf, "Graphics")
		if err := writeGraphics(pdf, graphics, dpi); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}
	return out.Bytes(), nil
}

func writeSection(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func writeKeyValues(pdf *fpdf.Fpdf, tr func(string) string, rows [][2]string) {
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, lineHeight, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentWidth-40, lineHeight, tr(row[1]), "", "L", false)
	}
}

func writeDiagnostics(pdf *fpdf.Fpdf, tr func(string) string, diags []model.Diagnostic) {
	widths := []float64{14, 20, 20, 36, contentWidth - 90}
	headers := []string{"Line", "Command", "Error at", "Kind", "Message"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], lineHeight, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, d := range diags {
		kind := d.Kind
		if d.Fatal {
			kind += " (fatal)"
		}
		msg := d.Message
		if len(msg) > maxMessageLen {
			msg = msg[:maxMessageLen-3] + "..."
		}
		cells := []string{
			strconv.Itoa(d.Line),
			strconv.Itoa(d.CommandOffset),
			strconv.Itoa(d.ErrorOffset),
			kind,
			tr(msg),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], lineHeight, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeGraphics(pdf *fpdf.Fpdf, graphics []*epl2.Graphics, dpi int) error {
	if len(graphics) > MaxGraphicsPreviews {
		graphics = graphics[:MaxGraphicsPreviews]
	}

	pdf.SetFont("Helvetica", "", 9)
	for i, g := range graphics {
		var buf bytes.Buffer
		if err := png.Encode(&buf, Bitmap(g)); err != nil {
			return fmt.Errorf("encode graphic %d: %w", i+1, err)
		}
		name := fmt.Sprintf("gw%d", i)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)

		w := float64(g.WidthDots()) / float64(dpi) * mmPerInch
		h := float64(g.LengthDots) / float64(dpi) * mmPerInch
		if w > contentWidth {
			h *= contentWidth / w
			w = contentWidth
		}

		pdf.CellFormat(contentWidth, lineHeight,
			fmt.Sprintf("GW at %d,%d: %d x %d dots", g.HStart, g.VStart, g.WidthDots(), g.LengthDots),
			"", 1, "L", false, 0, "")
		pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), w, h, true, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.Ln(2)
	}
	return pdf.Error()
}

// Bitmap converts GW raster data to a black and white image. A clear bit is a
// printed dot.
func Bitmap(g *epl2.Graphics) *image.Paletted {
	width, height := g.WidthDots(), g.LengthDots
	img := image.NewPaletted(image.Rect(0, 0, width, height), color.Palette{color.White, color.Black})

	for y := 0; y < height; y++ {
		row := y * g.WidthBytes
		for x := 0; x < width; x++ {
			i := row + x/8
			if i >= len(g.Data) {
				return img
			}
			if g.Data[i]&(0x80>>(x%8)) == 0 {
				img.Pix[y*img.Stride+x] = 1
			}
		}
	}
	return img
}
