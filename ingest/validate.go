package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/tilekit/geometry"
	"github.com/hupe1980/tilekit/tileset"
	"github.com/hupe1980/tilekit/volume"
)

// Summary describes a validated document.
type Summary struct {
	Version        string
	GeometricError float64
	Tiles          int
	Children       int
	Contents       int
	URIBytes       int
	Depth          int
	Implicit       bool
}

type validator struct {
	maxDepth int
	sum      Summary
}

// Validate checks doc and returns its summary. It fails with a MalformedError
// naming the first offending element.
func Validate(doc *Document, maxDepth int) (Summary, error) {
	switch doc.Asset.Version {
	case "1.0", "1.1":
	case "":
		return Summary{}, malformed("asset.version", "missing")
	default:
		return Summary{}, &MalformedError{
			Path:   "asset.version",
			Reason: ErrUnsupportedVersion.Error() + " " + strconv.Quote(doc.Asset.Version),
			cause:  ErrUnsupportedVersion,
		}
	}
	if doc.GeometricError == nil {
		return Summary{}, malformed("geometricError", "missing")
	}
	if !validError(*doc.GeometricError) {
		return Summary{}, malformed("geometricError", "must be a finite value >= 0, got %v", *doc.GeometricError)
	}
	if doc.Root == nil {
		return Summary{}, malformed("root", "missing")
	}

	v := &validator{maxDepth: maxDepth}
	v.sum.Version = doc.Asset.Version
	v.sum.GeometricError = *doc.GeometricError
	if err := v.tile(doc.Root, "root", 1); err != nil {
		return Summary{}, err
	}
	return v.sum, nil
}

func (v *validator) tile(t *Tile, path string, depth int) error {
	if v.maxDepth > 0 && depth > v.maxDepth {
		return malformed(path, "hierarchy deeper than %d", v.maxDepth)
	}
	v.sum.Tiles++
	v.sum.Depth = max(v.sum.Depth, depth)

	if t.BoundingVolume == nil {
		return malformed(path+".boundingVolume", "missing")
	}
	if _, err := convertVolume(t.BoundingVolume, path+".boundingVolume"); err != nil {
		return err
	}
	if t.GeometricError == nil {
		return malformed(path+".geometricError", "missing")
	}
	if !validError(*t.GeometricError) {
		return malformed(path+".geometricError", "must be a finite value >= 0, got %v", *t.GeometricError)
	}
	if _, ok := parseRefine(t.Refine); !ok && t.Refine != "" {
		return malformed(path+".refine", "unknown method %q", t.Refine)
	}
	if t.Transform != nil {
		if _, err := convertTransform(t.Transform, path+".transform"); err != nil {
			return err
		}
	}
	if t.ImplicitTiling != nil {
		if _, err := parseSubdivision(t.ImplicitTiling.SubdivisionScheme, path+".implicitTiling.subdivisionScheme"); err != nil {
			return err
		}
		v.sum.Implicit = true
	}

	if t.Content != nil && len(t.Contents) > 0 {
		return malformed(path, "content and contents are mutually exclusive")
	}
	if t.Content != nil {
		if err := v.content(t.Content, path+".content"); err != nil {
			return err
		}
	}
	for i := range t.Contents {
		if err := v.content(&t.Contents[i], path+".contents["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}

	v.sum.Children += len(t.Children)
	for i := range t.Children {
		if err := v.tile(&t.Children[i], path+".children["+strconv.Itoa(i)+"]", depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) content(c *Content, path string) error {
	uri := c.uri()
	if uri == "" {
		return malformed(path+".uri", "missing")
	}
	if c.BoundingVolume != nil {
		if _, err := convertVolume(c.BoundingVolume, path+".boundingVolume"); err != nil {
			return err
		}
	}
	v.sum.Contents++
	v.sum.URIBytes += len(uri)
	return nil
}

func validError(e float64) bool {
	return !math.IsNaN(e) && !math.IsInf(e, 0) && e >= 0
}

func parseRefine(s string) (tileset.Refinement, bool) {
	switch strings.ToUpper(s) {
	case "REPLACE":
		return tileset.RefineReplace, true
	case "ADD":
		return tileset.RefineAdd, true
	default:
		return 0, false
	}
}

func parseSubdivision(s, path string) (tileset.Subdivision, error) {
	switch strings.ToUpper(s) {
	case "QUADTREE":
		return tileset.SubdivisionQuadtree, nil
	case "OCTREE":
		return tileset.SubdivisionOctree, nil
	default:
		return 0, malformed(path, "unknown scheme %q", s)
	}
}

func convertVolume(bv *BoundingVolume, path string) (volume.Volume, error) {
	set := 0
	for _, s := range [][]float64{bv.Box, bv.Region, bv.Sphere} {
		if s != nil {
			set++
		}
	}
	if set != 1 {
		return volume.Volume{}, malformed(path, "must hold exactly one of box, region, sphere")
	}

	var v volume.Volume
	switch {
	case bv.Box != nil:
		if len(bv.Box) != 12 {
			return volume.Volume{}, malformed(path+".box", "want 12 numbers, got %d", len(bv.Box))
		}
		v = volume.FromBox(geometry.BoxFromArray([12]float64(bv.Box)))
	case bv.Region != nil:
		if len(bv.Region) != 6 {
			return volume.Volume{}, malformed(path+".region", "want 6 numbers, got %d", len(bv.Region))
		}
		r := geometry.RegionFromArray([6]float64(bv.Region))
		if r.South > r.North || r.MinHeight > r.MaxHeight {
			return volume.Volume{}, malformed(path+".region", "inverted extent")
		}
		v = volume.FromRegion(r)
	default:
		if len(bv.Sphere) != 4 {
			return volume.Volume{}, malformed(path+".sphere", "want 4 numbers, got %d", len(bv.Sphere))
		}
		s := geometry.SphereFromArray([4]float64(bv.Sphere))
		if s.Radius < 0 {
			return volume.Volume{}, malformed(path+".sphere", "negative radius")
		}
		v = volume.FromSphere(s)
	}
	if !v.IsFinite() {
		return volume.Volume{}, malformed(path, "non-finite component")
	}
	return v, nil
}

func convertTransform(a []float64, path string) (geometry.Matrix4, error) {
	if len(a) != 16 {
		return geometry.Matrix4{}, malformed(path, "want 16 numbers, got %d", len(a))
	}
	m := geometry.Matrix4(a)
	if !m.IsFinite() {
		return geometry.Matrix4{}, malformed(path, "non-finite component")
	}
	return m, nil
}
