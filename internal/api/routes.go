// Package api provides HTTP handlers for the plot server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/atlasmap-sc/cellplot/container"
	"github.com/atlasmap-sc/cellplot/internal/service"
	"github.com/atlasmap-sc/cellplot/summarize"
)

// RouterConfig contains router configuration.
type RouterConfig struct {
	Registry    *DatasetRegistry
	CORSOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Global datasets endpoint (not dataset-scoped)
	r.Get("/api/datasets", datasetsHandler(cfg.Registry))

	// Dataset-scoped routes: /d/{dataset}/...
	r.Route("/d/{dataset}", func(r chi.Router) {
		r.Use(datasetMiddleware(cfg.Registry))

		// Plot endpoints
		r.Get("/plots/embedding.png", embeddingPlotHandler)
		r.Get("/plots/bins.png", binPlotHandler)

		// API endpoints
		r.Route("/api", func(r chi.Router) {
			r.Get("/metadata", metadataHandler)
			r.Get("/features", featuresHandler)
			r.Get("/legend/{variable}", legendHandler)
			r.Get("/embedding", embeddingDataHandler)
			r.Get("/dot", dotDataHandler)
			r.Get("/summary", summaryDataHandler)
		})
	})

	return r
}

// Context key for dataset service
type ctxKey string

const datasetServiceKey ctxKey = "datasetService"

// datasetMiddleware resolves the dataset from URL and injects the plot
// service into context.
func datasetMiddleware(registry *DatasetRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			datasetID := chi.URLParam(r, "dataset")
			svc := registry.Get(datasetID)
			if svc == nil {
				http.Error(w, "dataset not found: "+datasetID, http.StatusNotFound)
				return
			}
			ctx := context.WithValue(r.Context(), datasetServiceKey, svc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getDatasetService(r *http.Request) *service.PlotService {
	if svc, ok := r.Context().Value(datasetServiceKey).(*service.PlotService); ok {
		return svc
	}
	return nil
}

// datasetsHandler returns the list of available datasets.
func datasetsHandler(registry *DatasetRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"default":  registry.DefaultDatasetID(),
			"datasets": registry.Datasets(),
			"title":    registry.Title(),
		}
		writeJSON(w, response)
	}
}

func metadataHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}
	writeJSON(w, svc.Metadata())
}

func featuresHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}

	features := svc.Features()
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		filtered := make([]string, 0, 32)
		lower := strings.ToLower(q)
		for _, f := range features {
			if strings.Contains(strings.ToLower(f), lower) {
				filtered = append(filtered, f)
			}
		}
		features = filtered
	}

	writeJSON(w, map[string]interface{}{
		"features": features,
		"total":    len(features),
	})
}

func legendHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}

	variable := chi.URLParam(r, "variable")
	items, err := svc.Legend(variable)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"variable": variable,
		"items":    items,
	})
}

func embeddingPlotHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}

	req, err := parseEmbeddingRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := svc.EmbeddingPlot(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writePNG(w, data)
}

func embeddingDataHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}

	req, err := parseEmbeddingRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := svc.EmbeddingData(req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func binPlotHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	embedding := strings.TrimSpace(q.Get("embedding"))
	if embedding == "" {
		http.Error(w, "missing required query param: embedding", http.StatusBadRequest)
		return
	}
	dimX, dimY, err := parseDims(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bins := 0
	if raw := strings.TrimSpace(q.Get("bins")); raw != "" {
		if bins, err = strconv.Atoi(raw); err != nil {
			http.Error(w, "invalid bins", http.StatusBadRequest)
			return
		}
	}

	data, err := svc.BinPlot(service.BinPlotRequest{
		Embedding:   embedding,
		DimX:        dimX,
		DimY:        dimY,
		Bins:        bins,
		Hex:         q.Get("shape") != "rect",
		Var:         strings.TrimSpace(q.Get("var")),
		Summary:     strings.TrimSpace(q.Get("summary")),
		Assay:       strings.TrimSpace(q.Get("assay")),
		Cells:       parseCSV(q.Get("cells")),
		Colormap:    q.Get("colormap"),
		RasterScale: parseScale(q),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writePNG(w, data)
}

func dotDataHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	vars := parseCSV(q.Get("vars"))
	if len(vars) == 0 {
		http.Error(w, "missing required query param: vars", http.StatusBadRequest)
		return
	}
	groupBy := strings.TrimSpace(q.Get("group_by"))
	if groupBy == "" {
		http.Error(w, "missing required query param: group_by", http.StatusBadRequest)
		return
	}

	data, err := svc.DotData(service.DotRequest{
		Vars:    vars,
		GroupBy: groupBy,
		Summary: strings.TrimSpace(q.Get("summary")),
		Assay:   strings.TrimSpace(q.Get("assay")),
		Cells:   parseCSV(q.Get("cells")),
		Scale:   q.Get("scale") == "true",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func summaryDataHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	variable := strings.TrimSpace(q.Get("var"))
	if variable == "" {
		http.Error(w, "missing required query param: var", http.StatusBadRequest)
		return
	}
	groupBy := strings.TrimSpace(q.Get("group_by"))
	if groupBy == "" {
		http.Error(w, "missing required query param: group_by", http.StatusBadRequest)
		return
	}

	data, err := svc.SummaryData(service.SummaryRequest{
		Var:     variable,
		GroupBy: groupBy,
		Summary: strings.TrimSpace(q.Get("summary")),
		Assay:   strings.TrimSpace(q.Get("assay")),
		Cells:   parseCSV(q.Get("cells")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func parseEmbeddingRequest(q url.Values) (service.EmbeddingPlotRequest, error) {
	embedding := strings.TrimSpace(q.Get("embedding"))
	if embedding == "" {
		return service.EmbeddingPlotRequest{}, errors.New("missing required query param: embedding")
	}
	dimX, dimY, err := parseDims(q)
	if err != nil {
		return service.EmbeddingPlotRequest{}, err
	}

	return service.EmbeddingPlotRequest{
		Embedding:   embedding,
		DimX:        dimX,
		DimY:        dimY,
		Color:       strings.TrimSpace(q.Get("color")),
		Assay:       strings.TrimSpace(q.Get("assay")),
		Cells:       parseCSV(q.Get("cells")),
		SplitBy:     parseCSV(q.Get("split_by")),
		IncludeAll:  q.Get("include_all") == "true",
		PointSize:   parsePointSize(q),
		Colormap:    q.Get("colormap"),
		RasterScale: parseScale(q),
		HideLegend:  q.Get("hide_legend") == "true",
	}, nil
}

func parseDims(q url.Values) (int, int, error) {
	dimX, dimY := 0, 1
	if raw := strings.TrimSpace(q.Get("dim_x")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.New("invalid dim_x")
		}
		dimX = v
	}
	if raw := strings.TrimSpace(q.Get("dim_y")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.New("invalid dim_y")
		}
		dimY = v
	}
	return dimX, dimY, nil
}

func parseCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePointSize(query url.Values) float64 {
	raw := strings.TrimSpace(query.Get("point_size"))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	if v > 20 {
		v = 20
	}
	// Quantize for stable caching.
	return math.Round(v*1000) / 1000
}

func parseScale(query url.Values) float64 {
	raw := strings.TrimSpace(query.Get("raster_scale"))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	if v > 4 {
		v = 4
	}
	return math.Round(v*100) / 100
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// writeError maps pipeline error types to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		nfErr  *container.NotFoundError
		varErr *container.VariableNotFoundError
		tmErr  *container.TypeMismatchError
		smErr  *container.ShapeMismatchError
		usErr  *summarize.UnknownSummaryError
	)
	switch {
	case errors.As(err, &nfErr), errors.As(err, &varErr):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &tmErr), errors.As(err, &smErr), errors.As(err, &usErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
