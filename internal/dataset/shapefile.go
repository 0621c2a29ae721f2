package dataset

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/fetcher"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
)

// ShapefileOptions configures LoadTractShapefile.
type ShapefileOptions struct {
	// GEOIDField names the tract id attribute. Default "GEOID".
	GEOIDField string
	// Poverty supplies poverty values keyed by tract id. Tracts without an
	// entry get NaN.
	Poverty map[string]float64
}

// PovertyByID indexes tract poverty values by GEOID.
func PovertyByID(tracts []model.Tract) map[string]float64 {
	m := make(map[string]float64, len(tracts))
	for _, t := range tracts {
		m[t.GEOID] = t.PovertyPct
	}
	return m
}

// LoadTractShapefile reads tract anchors from a TIGER tract shapefile. src
// may be a .shp path, a .zip holding one, or a URL to either. The
// representative point is INTPTLAT/INTPTLON when present, otherwise the
// polygon centroid.
func (l *Loader) LoadTractShapefile(ctx context.Context, src string, opts ShapefileOptions) ([]model.Tract, CleanReport, error) {
	rep := newReport("tract_shapefile", 0)
	if opts.GEOIDField == "" {
		opts.GEOIDField = "GEOID"
	}

	path, err := l.Localize(ctx, src)
	if err != nil {
		return nil, rep, eris.Wrap(err, "dataset: locate tract shapefile")
	}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		path, err = l.unpackShapefile(path)
		if err != nil {
			return nil, rep, err
		}
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, rep, eris.Wrapf(err, "dataset: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	idIdx, ok := fieldIdx[strings.ToLower(opts.GEOIDField)]
	if !ok {
		return nil, rep, eris.Errorf("dataset: shapefile %s has no %s field", path, opts.GEOIDField)
	}
	latIdx, hasLat := fieldIdx["intptlat"]
	lngIdx, hasLng := fieldIdx["intptlon"]

	attr := func(i int) string {
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
	}

	seen := make(map[string]struct{})
	var out []model.Tract
	for reader.Next() {
		rep.Rows++
		_, shape := reader.Shape()

		id := attr(idIdx)
		if id == "" {
			rep.drop("missing_tract_id")
			continue
		}
		if _, dup := seen[id]; dup {
			rep.drop("duplicate_tract_id")
			continue
		}

		var lat, lng float64
		var okPt bool
		if hasLat && hasLng {
			var okLat, okLng bool
			lat, okLat = parseFloat(attr(latIdx))
			lng, okLng = parseFloat(attr(lngIdx))
			okPt = okLat && okLng
		}
		if !okPt {
			c, err := shapeCentroid(shape)
			if err != nil {
				zap.L().Debug("dataset: no representative point for tract",
					zap.String("geoid", id), zap.Error(err))
				rep.drop("missing_geometry")
				continue
			}
			lng, lat = c.X(), c.Y()
		}
		if !validCoord(lat, lng) {
			rep.drop("invalid_coordinates")
			continue
		}
		seen[id] = struct{}{}

		pov, ok := opts.Poverty[id]
		if !ok {
			pov = math.NaN()
		}
		out = append(out, model.Tract{GEOID: id, Latitude: lat, Longitude: lng, PovertyPct: pov})
	}

	rep.Kept = len(out)
	rep.log()
	return out, rep, nil
}

func (l *Loader) unpackShapefile(zipPath string) (string, error) {
	dest := filepath.Join(l.tempDir, strings.TrimSuffix(filepath.Base(zipPath), filepath.Ext(zipPath)))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", eris.Wrap(err, "dataset: create shapefile dir")
	}
	files, err := fetcher.ExtractZIP(zipPath, dest)
	if err != nil {
		return "", eris.Wrapf(err, "dataset: extract %s", zipPath)
	}
	shpPath, err := fetcher.FindByExt(files, ".shp")
	if err != nil {
		return "", eris.Wrapf(err, "dataset: find shapefile in %s", zipPath)
	}
	return shpPath, nil
}

// shapeCentroid returns the centroid of a point or polygon shape as an XY
// coordinate (lng, lat).
func shapeCentroid(shape shp.Shape) (geom.Coord, error) {
	var g geom.T
	switch s := shape.(type) {
	case *shp.Point:
		return geom.Coord{s.X, s.Y}, nil
	case *shp.Polygon:
		mp := polygonToMultiPolygon(s)
		if mp == nil {
			return nil, eris.New("dataset: polygon has no usable rings")
		}
		g = mp
	default:
		return nil, eris.Errorf("dataset: unsupported shape %T", shape)
	}
	c, err := xy.Centroid(g)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: polygon centroid")
	}
	return c, nil
}

// polygonToMultiPolygon treats each shapefile part as its own ring-only
// polygon.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			continue
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			continue
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
