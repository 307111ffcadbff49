package chitbox

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/matzehuels/chitboxes/pkg/canvas"
	"github.com/matzehuels/chitboxes/pkg/geom"
	"github.com/matzehuels/chitboxes/pkg/observability"
)

const eps = 1e-9

type stubImage struct{ key string }

func (s stubImage) Key() string        { return s.key }
func (s stubImage) Image() image.Image { return image.NewRGBA(image.Rect(0, 0, 4, 2)) }

func layoutOnce(t *testing.T, dims Dimensions, panels PanelRenderer, scale float64) (Net, *canvas.Recorder) {
	t.Helper()
	rec := canvas.NewRecorder()
	c := canvas.New(rec)
	net := GeneratePage(c, Letter, dims, panels, scale)
	if c.Depth() != 0 || rec.Depth() != 0 {
		t.Fatalf("frame depth after page = canvas %d, surface %d, want 0", c.Depth(), rec.Depth())
	}
	return net, rec
}

func findPanel(t *testing.T, net Net, role Role, name string) PlacedPanel {
	t.Helper()
	for _, p := range net.Panels {
		if p.Role == role && p.Name == name {
			return p
		}
	}
	t.Fatalf("no %s panel named %q", role, name)
	return PlacedPanel{}
}

func TestGeneratePageIsBalanced(t *testing.T) {
	tests := []Dimensions{
		FromCentimeters(4.5, 4.5, 2.5),
		FromCentimeters(1.1, 2.5, 1.7),
		FromCentimeters(0.01, 30, 0.5),
		FromCentimeters(12, 3, 7),
		{Width: 1, Height: 1, Depth: 1},
	}
	for _, dims := range tests {
		t.Run(dims.String(), func(t *testing.T) {
			for _, scale := range PageScales {
				net, _ := layoutOnce(t, dims, PlaceholderRenderer{}, scale)
				if len(net.Panels) != 17 {
					t.Errorf("got %d panels, want 17", len(net.Panels))
				}
			}
		})
	}
}

func TestGeneratePagePanelCounts(t *testing.T) {
	net, _ := layoutOnce(t, FromCentimeters(3, 5, 2), ImageRenderer{}, 1)

	want := map[Role]int{
		RoleCentre:      1,
		RoleFullSide:    8,
		RoleCornerSide:  4,
		RoleInnerBottom: 4,
	}
	for role, n := range want {
		if got := net.Count(role); got != n {
			t.Errorf("Count(%s) = %d, want %d", role, got, n)
		}
	}
}

func TestCentrePanelSitsOnPageCentre(t *testing.T) {
	net, _ := layoutOnce(t, FromCentimeters(3, 5, 2), ImageRenderer{}, 0.95)
	centre := findPanel(t, net, RoleCentre, "centre")

	if !centre.Centre().ApproxEqual(geom.Pt(306, 396), eps) {
		t.Errorf("centre panel at %v, want page centre (306,396)", centre.Centre())
	}
	if got := centre.CTM.Rotation(); math.Abs(got-NetRotation) > eps {
		t.Errorf("centre panel rotation = %v, want %v", got, NetRotation)
	}
	if got := centre.CTM.ScaleFactor(); math.Abs(got-0.95) > eps {
		t.Errorf("centre panel scale = %v, want 0.95", got)
	}
}

func TestFullSidesMirrorThroughCentre(t *testing.T) {
	dims := FromCentimeters(2.2, 3.7, 1.3)
	net, _ := layoutOnce(t, dims, ImageRenderer{}, 1)
	origin := geom.Pt(Letter.Centre())

	pairs := [][2]string{
		{"top-outer", "bottom-outer"},
		{"top-inner", "bottom-inner"},
		{"left-outer", "right-outer"},
		{"left-inner", "right-inner"},
	}
	for _, pair := range pairs {
		a := findPanel(t, net, RoleFullSide, pair[0]).Centre()
		b := findPanel(t, net, RoleFullSide, pair[1]).Centre()
		mirrored := origin.Scale(2).Sub(a)
		if !mirrored.ApproxEqual(b, eps) {
			t.Errorf("%s at %v mirrors to %v, but %s is at %v", pair[0], a, mirrored, pair[1], b)
		}
	}

	// outer strips sit depth/2 past the centre edge, inner strips another depth out
	outer := findPanel(t, net, RoleFullSide, "top-outer").Centre().Dist(origin)
	inner := findPanel(t, net, RoleFullSide, "top-inner").Centre().Dist(origin)
	if math.Abs(outer-(dims.Height/2+dims.Depth/2)) > eps {
		t.Errorf("top-outer distance = %v, want %v", outer, dims.Height/2+dims.Depth/2)
	}
	if math.Abs(inner-(dims.Height/2+3*dims.Depth/2)) > eps {
		t.Errorf("top-inner distance = %v, want %v", inner, dims.Height/2+3*dims.Depth/2)
	}
}

func TestCornerSideDistance(t *testing.T) {
	dims := FromCentimeters(2.2, 3.7, 1.3)
	for _, scale := range PageScales {
		net, _ := layoutOnce(t, dims, ImageRenderer{}, scale)
		origin := geom.Pt(Letter.Centre())
		want := math.Hypot(dims.Width/2+dims.Depth/2, dims.Height) * scale

		for _, name := range []string{"top-left", "top-right", "bottom-left", "bottom-right"} {
			p := findPanel(t, net, RoleCornerSide, name)
			if got := p.Centre().Dist(origin); math.Abs(got-want) > 1e-6 {
				t.Errorf("scale %v: %s at distance %v, want %v", scale, name, got, want)
			}
			if p.W != dims.Height || p.H != dims.Depth {
				t.Errorf("%s size = %vx%v, want height x depth", name, p.W, p.H)
			}
		}
	}
}

func TestInnerBottomTabs(t *testing.T) {
	dims := FromCentimeters(2, 3, 1)
	net, _ := layoutOnce(t, dims, ImageRenderer{}, 1)
	origin := geom.Pt(Letter.Centre())

	tests := []struct {
		name string
		dist float64
	}{
		{"top", dims.Height + 2*dims.Depth},
		{"bottom", dims.Height + 2*dims.Depth},
		{"left", dims.Width + 2*dims.Depth},
		{"right", dims.Width + 2*dims.Depth},
	}
	for _, tt := range tests {
		p := findPanel(t, net, RoleInnerBottom, tt.name)
		if got := p.Centre().Dist(origin); math.Abs(got-tt.dist) > 1e-6 {
			t.Errorf("%s tab at distance %v, want %v", tt.name, got, tt.dist)
		}
		if p.Kind != CentreKind || p.W != dims.Width || p.H != dims.Height {
			t.Errorf("%s tab = %s %vx%v, want centre width x height", tt.name, p.Kind, p.W, p.H)
		}
	}
}

func TestSilhouetteTurnsOnce(t *testing.T) {
	for _, dims := range []Dimensions{
		FromCentimeters(4.5, 4.5, 2.5),
		FromCentimeters(1.1, 2.5, 1.7),
		FromCentimeters(9, 0.5, 0.1),
	} {
		net, rec := layoutOnce(t, dims, ImageRenderer{}, 1)
		if got := net.Silhouette.TurningSum(); math.Abs(math.Abs(got)-360) > eps {
			t.Errorf("%s: turning sum = %v, want ±360", dims, got)
		}

		masks := 0
		for _, r := range rec.Filter(0, canvas.OpRect) {
			if r.Fill == canvas.White && r.Mode == canvas.Fill {
				masks++
			}
		}
		if masks != 4 {
			t.Errorf("%s: %d white masks, want 4", dims, masks)
		}
	}
}

func TestSilhouetteEdgesCloseTheOutline(t *testing.T) {
	net, rec := layoutOnce(t, FromCentimeters(2, 3, 1), ImageRenderer{}, 1)
	edges := net.Silhouette.Edges
	for i := range edges {
		next := edges[(i+1)%len(edges)]
		if !edges[i].To.ApproxEqual(next.From, eps) {
			t.Errorf("edge %d ends at %v, edge %d starts at %v", i, edges[i].To, (i+1)%4, next.From)
		}
	}

	lines := rec.Filter(0, canvas.OpLine)
	if len(lines) != 4 {
		t.Fatalf("got %d lines on a non-square net, want 4 silhouette cuts", len(lines))
	}
	for i, l := range lines {
		pts := l.PagePoints()
		if !pts[0].ApproxEqual(edges[i].From, 1e-6) || !pts[1].ApproxEqual(edges[i].To, 1e-6) {
			t.Errorf("cut %d = %v, want %v -> %v", i, pts, edges[i].From, edges[i].To)
		}
	}
}

func TestAnnotationsOnlyForSquareFootprints(t *testing.T) {
	tests := []struct {
		name string
		dims Dimensions
		want int
	}{
		{"square", FromCentimeters(4.5, 4.5, 2.5), 30},
		{"unit square", Dimensions{Width: 10, Height: 10, Depth: 3}, 30},
		{"tall", FromCentimeters(1.1, 2.5, 1.7), 0},
		{"almost square", Dimensions{Width: 10, Height: 10.000001, Depth: 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, rec := layoutOnce(t, tt.dims, ImageRenderer{}, 1)
			if net.Annotations != tt.want {
				t.Errorf("Annotations = %d, want %d", net.Annotations, tt.want)
			}
			lines := len(rec.Filter(0, canvas.OpLine))
			arrows := len(rec.Filter(0, canvas.OpPolygon))
			if lines+arrows-4 != tt.want {
				t.Errorf("recorded %d lines and %d arrows, want %d annotation strokes", lines, arrows, tt.want)
			}
		})
	}
}

func TestAnnotationStyles(t *testing.T) {
	_, rec := layoutOnce(t, FromCentimeters(4, 4, 1), ImageRenderer{}, 1)

	var cut, fold int
	for _, l := range rec.Filter(0, canvas.OpLine)[4:] {
		if l.Width != annotationLineWidth {
			t.Errorf("annotation line width = %v, want %v", l.Width, annotationLineWidth)
		}
		switch {
		case len(l.Dash) == 2 && l.Dash[0] == 5:
			cut++
		case len(l.Dash) == 2 && l.Dash[0] == 1:
			fold++
		default:
			t.Errorf("unexpected dash %v", l.Dash)
		}
	}
	if cut != 4 || fold != 22 {
		t.Errorf("got %d cut and %d fold ticks, want 4 and 22", cut, fold)
	}
	for _, a := range rec.Filter(0, canvas.OpPolygon) {
		if len(a.Dash) != 0 || a.Mode != canvas.FillStroke || len(a.Points) != 3 {
			t.Errorf("arrow head = %+v, want solid filled triangle", a)
		}
	}
}

func TestSampleModeEndToEnd(t *testing.T) {
	g, err := New(FromCentimeters(4.5, 4.5, 2.5), WithSample(), WithImages(stubImage{"ignored"}, nil))
	if err != nil {
		t.Fatal(err)
	}
	rec := canvas.NewRecorder()
	nets, err := g.Generate(rec)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if rec.Pages() != 2 || !rec.Closed() {
		t.Fatalf("pages = %d, closed = %v; want 2 pages and a closed surface", rec.Pages(), rec.Closed())
	}
	if len(nets) != 2 || nets[0].Scale != 1 || nets[1].Scale != 0.95 {
		t.Fatalf("nets = %d with scales, want pages at 1.0 and 0.95", len(nets))
	}

	for page, net := range nets {
		if net.Page != page {
			t.Errorf("net.Page = %d, want %d", net.Page, page)
		}
		if len(net.Panels) != 17 || net.Annotations != 30 {
			t.Errorf("page %d: %d panels, %d annotations; want 17 and 30", page, len(net.Panels), net.Annotations)
		}
		if imgs := rec.Filter(page, canvas.OpImage); len(imgs) != 0 {
			t.Errorf("page %d: sample mode drew %d images", page, len(imgs))
		}

		labels := map[string]int{}
		for _, txt := range rec.Filter(page, canvas.OpText) {
			labels[txt.Label]++
			if txt.H != placeholderLabelSize {
				t.Errorf("label size = %v, want %v", txt.H, placeholderLabelSize)
			}
		}
		if labels["Centre"] != 5 || labels["Side"] != 12 {
			t.Errorf("page %d labels = %v, want 5 Centre and 12 Side", page, labels)
		}

		placeholders := 0
		for _, r := range rec.Filter(page, canvas.OpRect) {
			if r.Mode == canvas.FillStroke {
				placeholders++
				if r.Fill != CentrePlaceholder && r.Fill != SidePlaceholder {
					t.Errorf("placeholder fill = %v", r.Fill)
				}
			}
		}
		if placeholders != 17 {
			t.Errorf("page %d: %d placeholder rects, want 17", page, placeholders)
		}
	}
}

func TestImagesEndToEnd(t *testing.T) {
	dims := FromCentimeters(1.1, 2.5, 1.7)
	g, err := New(dims, WithImages(stubImage{"centre"}, stubImage{"side"}), WithPageSize(A4))
	if err != nil {
		t.Fatal(err)
	}
	rec := canvas.NewRecorder()
	nets, err := g.Generate(rec)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	for page := range nets {
		if nets[page].Annotations != 0 {
			t.Errorf("page %d: %d annotations on a non-square box", page, nets[page].Annotations)
		}
		if n := len(rec.Filter(page, canvas.OpPolygon)); n != 0 {
			t.Errorf("page %d: %d arrow heads, want 0", page, n)
		}

		imgs := rec.Filter(page, canvas.OpImage)
		if len(imgs) != 17 {
			t.Fatalf("page %d: %d images, want 17", page, len(imgs))
		}
		for i, img := range imgs {
			p := nets[page].Panels[i]
			wantKey := "side"
			if p.Kind == CentreKind {
				wantKey = "centre"
			}
			if img.Image != wantKey {
				t.Errorf("%s %s drew %q, want %q", p.Role, p.Name, img.Image, wantKey)
			}
			if img.W != p.W || img.H != p.H {
				t.Errorf("%s %s image %vx%v, want stretched to %vx%v", p.Role, p.Name, img.W, img.H, p.W, p.H)
			}
			if img.Points[0] != geom.Pt(-p.W/2, -p.H/2) {
				t.Errorf("%s %s image origin = %v, want lower-left corner", p.Role, p.Name, img.Points[0])
			}
		}
	}

	centre := findPanel(t, nets[0], RoleCentre, "centre")
	if !centre.Centre().ApproxEqual(geom.Pt(A4.Centre()), eps) {
		t.Errorf("A4 centre panel at %v, want %v", centre.Centre(), geom.Pt(A4.Centre()))
	}
}

func TestMissingImagesLeavePanelsEmpty(t *testing.T) {
	g, err := New(FromCentimeters(2, 2, 1), WithImages(stubImage{"centre"}, nil))
	if err != nil {
		t.Fatal(err)
	}
	rec := canvas.NewRecorder()
	if _, err := g.Generate(rec); err != nil {
		t.Fatal(err)
	}
	if n := len(rec.Filter(0, canvas.OpImage)); n != 5 {
		t.Errorf("drew %d images with only a centre image, want 5", n)
	}
}

type leakyRenderer struct{}

func (leakyRenderer) DrawPanel(c *canvas.Canvas, _ PanelKind, _, _ float64) { c.Save() }

func TestUnbalancedRendererPanics(t *testing.T) {
	defer func() {
		r := recover()
		var ue *geom.UnbalancedError
		err, ok := r.(error)
		if !ok || !errors.As(err, &ue) {
			t.Fatalf("recover() = %v, want *geom.UnbalancedError", r)
		}
	}()
	GeneratePage(canvas.New(canvas.NewRecorder()), Letter, FromCentimeters(1, 1, 1), leakyRenderer{}, 1)
}

type failingSurface struct{ *canvas.Recorder }

var errWrite = errors.New("disk full")

func (failingSurface) Close() error { return errWrite }

func TestGenerateReturnsSurfaceErrors(t *testing.T) {
	g, _ := New(FromCentimeters(1, 1, 1))
	_, err := g.Generate(failingSurface{canvas.NewRecorder()})
	if !errors.Is(err, errWrite) {
		t.Errorf("Generate() error = %v, want %v", err, errWrite)
	}
}

func TestGenerateContextCancelled(t *testing.T) {
	g, _ := New(FromCentimeters(1, 1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := canvas.NewRecorder()
	nets, err := g.GenerateContext(ctx, rec)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GenerateContext() error = %v, want context.Canceled", err)
	}
	if len(nets) != 0 || rec.Closed() {
		t.Errorf("cancelled generation drew %d pages, closed = %v", len(nets), rec.Closed())
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	pages []int
}

func (h *countingHooks) OnLayoutComplete(_ context.Context, page, _ int, _ time.Duration) {
	h.pages = append(h.pages, page)
}

func TestGenerateEmitsLayoutHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	g, _ := New(FromCentimeters(1, 1, 1))
	if _, err := g.Generate(canvas.NewRecorder()); err != nil {
		t.Fatal(err)
	}
	if len(hooks.pages) != 2 || hooks.pages[0] != 1 || hooks.pages[1] != 2 {
		t.Errorf("layout hooks for pages %v, want [1 2]", hooks.pages)
	}
}

func TestNewRejectsInvalidDimensions(t *testing.T) {
	for _, dims := range []Dimensions{
		{Width: 0, Height: 1, Depth: 1},
		{Width: 1, Height: -1, Depth: 1},
		{Width: 1, Height: 1, Depth: math.NaN()},
		{Width: math.Inf(1), Height: 1, Depth: 1},
	} {
		if _, err := New(dims); err == nil {
			t.Errorf("New(%+v) succeeded, want error", dims)
		}
	}
}
