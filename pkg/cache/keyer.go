package cache

// ArtifactKeyOpts identifies one rendered artifact.
type ArtifactKeyOpts struct {
	Width    float64 `json:"w"`
	Height   float64 `json:"h"`
	Depth    float64 `json:"d"`
	PageSize string  `json:"page"`
	Sample   bool    `json:"sample"`
	Format   string  `json:"format"`
	// CentreHash and SideHash are content hashes of the artwork, empty when
	// the image is absent.
	CentreHash string `json:"centre,omitempty"`
	SideHash   string `json:"side,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey returns the key of a rendered document.
	ArtifactKey(opts ArtifactKeyOpts) string

	// PreviewKey returns the key of a raster preview.
	PreviewKey(opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(opts ArtifactKeyOpts) string {
	return hashKey("artifact", opts)
}

// PreviewKey returns "preview:<sha256>". Previews are always sample-mode
// PNGs, so only the geometry and page size take part in the key.
func (DefaultKeyer) PreviewKey(opts ArtifactKeyOpts) string {
	return hashKey("preview", opts.Width, opts.Height, opts.Depth, opts.PageSize)
}

var _ Keyer = DefaultKeyer{}
