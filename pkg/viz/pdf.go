package viz

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/synthtext/pkg/geom"
	"github.com/cyclopcam/synthtext/pkg/render"
)

// Height of the title strip above every image, in points
const pdfTitleHeight = 16

// Page is one page of a review sheet
type Page struct {
	Title    string // Should be latin-1, because we only use the core PDF fonts
	Instance *render.Instance
}

// WritePDF writes a review sheet with one page per instance. Every page is the size of
// its image (one pixel = one point), plus a title strip.
func WritePDF(w io.Writer, pages []Page, opts Options) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetLineWidth(opts.LineWidth)

	for i, page := range pages {
		img := page.Instance.Image
		width, height := float64(img.Width), float64(img.Height)
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: width, Ht: height + pdfTitleHeight})
		pdf.Text(2, pdfTitleHeight-4, page.Title)

		jpg, err := cimg.Compress(img, cimg.MakeCompressParams(cimg.Sampling444, 90, 0))
		if err != nil {
			return fmt.Errorf("Failed to compress page %v: %w", i, err)
		}
		imageName := fmt.Sprintf("img%d", i)
		imgOpts := fpdf.ImageOptions{ReadDpi: false, ImageType: "JPG"}
		pdf.RegisterImageOptionsReader(imageName, imgOpts, bytes.NewReader(jpg))
		pdf.ImageOptions(imageName, 0, pdfTitleHeight, width, height, false, imgOpts, 0, "")

		if opts.CharBoxes {
			pdf.SetDrawColor(255, 0, 0)
			for _, q := range page.Instance.CharBB {
				pdf.Polygon(pdfPoints(q), "D")
			}
		}
		if opts.WordBoxes {
			pdf.SetDrawColor(0, 255, 0)
			for _, q := range page.Instance.WordBB {
				pdf.Polygon(pdfPoints(q), "D")
			}
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("Failed to generate PDF: %w", err)
	}
	return nil
}

func pdfPoints(q geom.Quad) []fpdf.PointType {
	pts := make([]fpdf.PointType, 4)
	for i, p := range q {
		pts[i] = fpdf.PointType{X: float64(p.X), Y: float64(p.Y) + pdfTitleHeight}
	}
	return pts
}
