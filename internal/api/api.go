// Package api serves a processed tract table over HTTP.
package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/geo"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/pipeline"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/stats"
)

// Server answers queries against one joined tract table.
type Server struct {
	tracts  []model.Tract
	byID    map[string]int
	index   *geo.AnchorIndex
	crime   stats.Summary
	poverty stats.Summary
	corr    stats.Matrix
}

// NewServer indexes tracts for lookup and nearest-tract queries and
// precomputes the summary statistics.
func NewServer(tracts []model.Tract, cfg geo.JoinConfig) (*Server, error) {
	anchors := make([]geo.Anchor, len(tracts))
	byID := make(map[string]int, len(tracts))
	for i, t := range tracts {
		anchors[i] = geo.Anchor{ID: t.GEOID, Point: geo.LatLng{Lat: t.Latitude, Lng: t.Longitude}}
		if _, ok := byID[t.GEOID]; !ok {
			byID[t.GEOID] = i
		}
	}

	idx, err := geo.NewAnchorIndex(anchors, cfg)
	if err != nil {
		return nil, err
	}
	crime, poverty, corr, err := pipeline.Describe(tracts)
	if err != nil {
		return nil, err
	}
	return &Server{
		tracts:  tracts,
		byID:    byID,
		index:   idx,
		crime:   crime,
		poverty: poverty,
		corr:    corr,
	}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/tracts", s.listTracts)
	r.Get("/tracts/{geoid}", s.getTract)
	r.Get("/summary", s.summary)
	r.Get("/nearest", s.nearest)
	return r
}

type tractResponse struct {
	GEOID      string   `json:"geoid"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	PovertyPct *float64 `json:"poverty_pct"`
	CrimeCount int64    `json:"crime_count"`
}

func toTractResponse(t model.Tract) tractResponse {
	r := tractResponse{
		GEOID:      t.GEOID,
		Latitude:   t.Latitude,
		Longitude:  t.Longitude,
		CrimeCount: t.CrimeCount,
	}
	if t.HasPoverty() {
		r.PovertyPct = &t.PovertyPct
	}
	return r
}

type describeResponse struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
	Min   *float64 `json:"min"`
	P25   *float64 `json:"p25"`
	P50   *float64 `json:"p50"`
	P75   *float64 `json:"p75"`
	Max   *float64 `json:"max"`
}

func toDescribeResponse(s stats.Summary) describeResponse {
	return describeResponse{
		Name: s.Name, Count: s.Count,
		Mean: num(s.Mean), Std: num(s.Std), Min: num(s.Min),
		P25: num(s.P25), P50: num(s.P50), P75: num(s.P75), Max: num(s.Max),
	}
}

type correlationResponse struct {
	X           string         `json:"x"`
	Y           string         `json:"y"`
	Pairs       int            `json:"pairs"`
	Coefficient *float64       `json:"coefficient"`
	Matrix      [2][2]*float64 `json:"matrix"`
}

// num maps NaN to nil so it encodes as JSON null.
func num(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tracts": len(s.tracts)})
}

func (s *Server) listTracts(w http.ResponseWriter, r *http.Request) {
	var minCount int64
	if v := r.URL.Query().Get("min_count"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "min_count must be a non-negative integer")
			return
		}
		minCount = n
	}

	out := make([]tractResponse, 0, len(s.tracts))
	for _, t := range s.tracts {
		if t.CrimeCount >= minCount {
			out = append(out, toTractResponse(t))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTract(w http.ResponseWriter, r *http.Request) {
	i, ok := s.byID[chi.URLParam(r, "geoid")]
	if !ok {
		writeError(w, http.StatusNotFound, "tract not found")
		return
	}
	writeJSON(w, http.StatusOK, toTractResponse(s.tracts[i]))
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) {
	var m [2][2]*float64
	for i := range s.corr.R {
		for j := range s.corr.R[i] {
			m[i][j] = num(s.corr.R[i][j])
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tracts":    len(s.tracts),
		"incidents": model.TotalCrimes(s.tracts),
		"bounds":    model.Bounds(s.tracts),
		"crime":     toDescribeResponse(s.crime),
		"poverty":   toDescribeResponse(s.poverty),
		"correlation": correlationResponse{
			X: s.corr.X, Y: s.corr.Y, Pairs: s.corr.Pairs,
			Coefficient: num(s.corr.Coefficient()),
			Matrix:      m,
		},
	})
}

// maxNearest caps the k accepted by /nearest.
const maxNearest = 10

type neighborResponse struct {
	Tract      tractResponse `json:"tract"`
	Distance   float64       `json:"distance"`
	DistanceKM float64       `json:"distance_km"`
}

func (s *Server) nearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusBadRequest, "lat and lon are required numbers")
		return
	}
	k := 1
	if v := q.Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxNearest {
			writeError(w, http.StatusBadRequest, "k must be between 1 and 10")
			return
		}
		k = n
	}

	c, err := geo.ToRadians(geo.LatLng{Lat: lat, Lng: lon})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := orb.Point{lon, lat}
	var out []neighborResponse
	for _, n := range s.index.Index().QueryK(c, k) {
		t := s.tracts[n.Index]
		out = append(out, neighborResponse{
			Tract:      toTractResponse(t),
			Distance:   n.Distance,
			DistanceKM: t.DistanceKM(p),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tract":       out[0].Tract,
		"distance_km": out[0].DistanceKM,
		"metric":      s.index.Index().Metric().String(),
		"neighbors":   out,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
