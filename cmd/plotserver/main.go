// Package main is the entry point for the CellPlot server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlasmap-sc/cellplot/container"
	"github.com/atlasmap-sc/cellplot/internal/api"
	"github.com/atlasmap-sc/cellplot/internal/cache"
	"github.com/atlasmap-sc/cellplot/internal/config"
	"github.com/atlasmap-sc/cellplot/internal/data/jsonds"
	"github.com/atlasmap-sc/cellplot/internal/service"
	"github.com/atlasmap-sc/cellplot/render"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	demo := flag.Bool("demo", false, "Serve a synthetic demo dataset when none are configured")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting CellPlot server on port %d", cfg.Server.Port)

	ctx := context.Background()

	// Initialize cache manager (shared across all datasets)
	cacheManager, err := cache.NewManager(cache.Config{
		PlotCacheSizeMB: cfg.Cache.PlotSizeMB,
		PlotTTL:         time.Duration(cfg.Cache.PlotTTLMinutes) * time.Minute,
		TableCacheSize:  cfg.Cache.TableCacheSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	// Initialize renderer (shared across all datasets)
	renderer := render.NewScatter(render.Config{
		Width:           cfg.Render.Width,
		Height:          cfg.Render.Height,
		PointSize:       cfg.Render.PointSize,
		DefaultColormap: cfg.Render.DefaultColormap,
	})

	registry := api.NewDatasetRegistry(cfg.Data.DefaultDataset(), cfg.Server.Title)

	// Load each configured dataset
	for _, ds := range cfg.Data.Datasets {
		reader, err := jsonds.Load(ds.Path)
		if err != nil {
			log.Fatalf("Failed to load dataset %q: %v", ds.ID, err)
		}

		c, err := container.Import(reader, container.ImportOptions{Ident: reader.Ident()})
		if err != nil {
			log.Fatalf("Failed to import dataset %q: %v", ds.ID, err)
		}

		log.Printf("  [%s] Loaded from: %s", ds.ID, ds.Path)
		log.Printf("    %s: %d, Assays: %d, Features: %d",
			c.ObservationLabel(), c.NObs(), len(c.AssayNames()), len(c.FeatureNames()))

		registry.Register(ds.ID, service.NewPlotService(service.PlotServiceConfig{
			DatasetID: ds.ID,
			Container: c,
			Cache:     cacheManager,
			Renderer:  renderer,
		}))
	}

	if len(cfg.Data.Datasets) == 0 {
		if !*demo {
			log.Fatal("No datasets configured (use -demo to serve a synthetic dataset)")
		}
		c, err := demoContainer()
		if err != nil {
			log.Fatalf("Failed to build demo dataset: %v", err)
		}
		log.Printf("  [demo] Synthetic dataset: %d cells", c.NObs())
		registry.Register("demo", service.NewPlotService(service.PlotServiceConfig{
			DatasetID: "demo",
			Container: c,
			Cache:     cacheManager,
			Renderer:  renderer,
		}))
	}

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		Registry:    registry,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// demoContainer builds a small synthetic dataset: three gaussian
// clusters on a 2-D embedding with two marker genes.
func demoContainer() (*container.Container, error) {
	const n = 1500
	rng := rand.New(rand.NewSource(42))

	obs := make([]string, n)
	clusters := make([]string, n)
	coords := make([]float64, 0, n*2)
	g1 := make([]float64, n)
	g2 := make([]float64, n)
	score := make([]float64, n)

	centers := [][2]float64{{-5, 0}, {5, 0}, {0, 6}}
	names := []string{"T", "B", "NK"}
	for i := 0; i < n; i++ {
		k := i % 3
		obs[i] = fmt.Sprintf("cell_%04d", i)
		clusters[i] = names[k]
		coords = append(coords,
			centers[k][0]+rng.NormFloat64(),
			centers[k][1]+rng.NormFloat64())
		// Marker genes: G1 high in T, G2 high in B.
		if k == 0 {
			g1[i] = math.Abs(3 + rng.NormFloat64())
		} else {
			g1[i] = math.Abs(rng.NormFloat64() * 0.3)
		}
		if k == 1 {
			g2[i] = math.Abs(3 + rng.NormFloat64())
		} else {
			g2[i] = math.Abs(rng.NormFloat64() * 0.3)
		}
		score[i] = rng.Float64()
	}

	values := make([]float64, 0, n*2)
	values = append(values, g1...)
	values = append(values, g2...)

	c, err := container.New(obs)
	if err != nil {
		return nil, err
	}
	if err := c.AddAssay("logcounts", []string{"G1", "G2"}, values); err != nil {
		return nil, err
	}
	if err := c.AddCategoricalAnnotation("cluster", clusters); err != nil {
		return nil, err
	}
	if err := c.AddNumericAnnotation("score", score); err != nil {
		return nil, err
	}
	if err := c.AddEmbedding("umap", "UMAP", 2, coords); err != nil {
		return nil, err
	}
	if err := c.SetIdent("cluster"); err != nil {
		return nil, err
	}
	return c, nil
}
