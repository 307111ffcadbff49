// Package sink provides the output surfaces a chit box document is drawn on.
//
// # Overview
//
// Each sink implements [canvas.Surface] for one output format:
//
//   - PDF: the print document, one net per page ([NewPDF], go-pdf/fpdf)
//   - PNG: a raster preview of a single page ([NewPNG], fogleman/gg)
//   - SVG: every page stacked in one scalable image ([NewSVG], ajstarks/svgo)
//
// All three accept the same y-up point coordinates with the origin at the
// bottom-left of the page, so the generator never knows which format it is
// producing:
//
//	var buf bytes.Buffer
//	s := sink.NewPDF(&buf, chitbox.Letter.Width, chitbox.Letter.Height)
//	nets, err := gen.Generate(s)
//
// # Images
//
// Panel artwork is embedded once per document and referenced from every panel
// that shows it, keyed by [canvas.Image.Key]. Images that can supply their own
// PNG encoding (such as imageio.Resource) are not re-encoded.
//
// # Previews
//
// [NewPNG] keeps only the page selected with [WithPage] (page 1 by default)
// and renders it at [PreviewDPI] unless [WithDPI] says otherwise. A Letter
// page at 75 dpi is 638 x 825 pixels.
package sink
