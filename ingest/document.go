package ingest

// Document is the subset of a 3D Tiles 1.0/1.1 tileset.json the loader reads.
type Document struct {
	Asset          Asset    `json:"asset"`
	GeometricError *float64 `json:"geometricError"`
	Root           *Tile    `json:"root"`
	ExtensionsUsed []string `json:"extensionsUsed,omitempty"`
}

// Asset holds tileset metadata.
type Asset struct {
	Version        string `json:"version"`
	TilesetVersion string `json:"tilesetVersion,omitempty"`
	Generator      string `json:"generator,omitempty"`
}

// Tile is one node of the JSON hierarchy.
type Tile struct {
	BoundingVolume *BoundingVolume `json:"boundingVolume"`
	GeometricError *float64        `json:"geometricError"`
	Refine         string          `json:"refine,omitempty"`
	Transform      []float64       `json:"transform,omitempty"`
	Content        *Content        `json:"content,omitempty"`
	Contents       []Content       `json:"contents,omitempty"`
	Children       []Tile          `json:"children,omitempty"`
	ImplicitTiling *ImplicitTiling `json:"implicitTiling,omitempty"`
}

// BoundingVolume holds exactly one of the three shapes.
type BoundingVolume struct {
	Box    []float64 `json:"box,omitempty"`
	Region []float64 `json:"region,omitempty"`
	Sphere []float64 `json:"sphere,omitempty"`
}

// Content references one payload. URL is the pre-1.0 spelling of URI.
type Content struct {
	URI            string          `json:"uri,omitempty"`
	URL            string          `json:"url,omitempty"`
	BoundingVolume *BoundingVolume `json:"boundingVolume,omitempty"`
}

// ImplicitTiling describes an implicitly subdivided root.
type ImplicitTiling struct {
	SubdivisionScheme string `json:"subdivisionScheme"`
	SubtreeLevels     int    `json:"subtreeLevels"`
	AvailableLevels   int    `json:"availableLevels"`
}

func (c *Content) uri() string {
	if c.URI != "" {
		return c.URI
	}
	return c.URL
}
