package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/TFMV/wikiforce/config"
	"github.com/TFMV/wikiforce/graph"
	"github.com/TFMV/wikiforce/metrics"
	"github.com/TFMV/wikiforce/models"
	"github.com/TFMV/wikiforce/physics"
	"github.com/TFMV/wikiforce/provider"
	"github.com/TFMV/wikiforce/render"
	"github.com/TFMV/wikiforce/server"
)

// Configuration represents all the settings for the application
type Configuration struct {
	Mode       string
	ArticleRef string
	OutputFile string
	Port       int
	ConfigFile string
	CacheFile  string
	Seed       int64
	Noise      float64
	DebugMode  bool
	MaxTicks   int
}

func main() {
	// Create a context that can be canceled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Environment first (.env is optional), flags override.
	_ = godotenv.Load()

	cfg := parseConfig()

	// Set up logging
	if cfg.DebugMode {
		log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds)
		log.Println("Debug mode enabled")
	} else {
		log.SetFlags(log.LstdFlags)
	}

	// Parameter presets: YAML file with hot reload, or defaults.
	params := models.DefaultParameters
	var loader *config.Loader
	if cfg.ConfigFile != "" {
		var err error
		loader, err = config.NewLoader(cfg.ConfigFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		params = loader.Parameters
		stop, err := loader.Watch()
		if err != nil {
			log.Fatalf("Failed to watch config: %v", err)
		}
		defer stop()
	}

	client := buildClient(cfg)

	if cfg.Mode == "server" {
		srv := server.New(server.Config{
			Port:      cfg.Port,
			Seed:      cfg.Seed,
			DebugMode: cfg.DebugMode,
		}, client, params)
		if loader != nil {
			loader.OnChange(srv.ApplyParameters)
		}
		if err := srv.Start(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	// One-shot render mode.
	output, err := renderArticle(ctx, client, cfg, params())
	if err != nil {
		log.Fatalf("Rendering failed: %v", err)
	}
	if err := os.WriteFile(cfg.OutputFile, output, 0644); err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}
	log.Printf("Processing complete. Output saved to %s", cfg.OutputFile)
}

// parseConfig parses command-line flags and returns a Configuration object
func parseConfig() *Configuration {
	cfg := &Configuration{}

	// Basic options
	flag.StringVar(&cfg.Mode, "mode", "svg", "Render mode: svg, json, server")
	flag.StringVar(&cfg.ArticleRef, "article", "", "Article title or URL to visualize")
	flag.StringVar(&cfg.OutputFile, "output", "", "Path to output file (defaults to 'output.[format]')")
	flag.IntVar(&cfg.Port, "port", 8080, "Port for server mode")

	// Simulation options
	flag.StringVar(&cfg.ConfigFile, "config", "", "Path to YAML parameter preset file (hot reloaded)")
	flag.Int64Var(&cfg.Seed, "seed", 1, "Seed for initial node placement")
	flag.Float64Var(&cfg.Noise, "noise", 0.0, "Intensity of simplex noise distortion (0.0-1.0)")
	flag.IntVar(&cfg.MaxTicks, "ticks", 1000, "Maximum ticks for the layout to settle")

	// Advanced options
	flag.StringVar(&cfg.CacheFile, "cache", "", "Path to sqlite fetch cache (empty disables caching)")
	flag.BoolVar(&cfg.DebugMode, "debug", false, "Enable debug logging")

	flag.Parse()

	// Validate required flags
	if cfg.ArticleRef == "" && cfg.Mode != "server" {
		fmt.Println("Please provide an article using the -article flag")
		flag.Usage()
		os.Exit(1)
	}

	// Set default output file if not specified
	if cfg.OutputFile == "" {
		switch cfg.Mode {
		case "svg":
			cfg.OutputFile = "output.svg"
		case "json":
			cfg.OutputFile = "output.json"
		}
	}

	return cfg
}

// buildClient assembles the article provider from flags and environment.
func buildClient(cfg *Configuration) *provider.Client {
	opts := []provider.Option{}
	if endpoint := os.Getenv("WIKIFORCE_API_URL"); endpoint != "" {
		opts = append(opts, provider.WithEndpoint(endpoint))
	}
	if ua := os.Getenv("WIKIFORCE_USER_AGENT"); ua != "" {
		opts = append(opts, provider.WithUserAgent(ua))
	}
	if cfg.CacheFile != "" {
		cache, err := provider.OpenCache(cfg.CacheFile, provider.DefaultCacheTTL)
		if err != nil {
			log.Fatalf("Failed to open cache: %v", err)
		}
		opts = append(opts, provider.WithCache(cache))
	}
	return provider.NewClient(opts...)
}

// renderArticle fetches one article, runs the layout to a settled state,
// and renders it in the configured format.
func renderArticle(ctx context.Context, client *provider.Client, cfg *Configuration, params models.Parameters) ([]byte, error) {
	title, err := provider.ParseArticleRef(cfg.ArticleRef)
	if err != nil {
		return nil, err
	}

	article, err := client.Fetch(ctx, title)
	if err != nil {
		return nil, err
	}
	log.Printf("Fetched %q: %d outbound links", article.Title, len(article.OutboundTitles))

	g, err := graph.FromArticle(article)
	if err != nil {
		return nil, err
	}

	sim := physics.New(params, cfg.Seed)
	sim.Load(g)
	metrics.SimulationsStarted.Inc()

	start := time.Now()
	settled := false
	for i := 0; i < cfg.MaxTicks; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		metrics.TicksTotal.Inc()
		if sim.Tick() {
			settled = true
			break
		}
	}
	if !settled {
		log.Println("Warning: layout did not fully stabilize, rendering partial result")
	} else {
		log.Printf("Layout settled in %s", time.Since(start).Round(time.Millisecond))
	}

	renderer, err := render.GetRenderer(cfg.Mode)
	if err != nil {
		return nil, err
	}
	options := render.NewDefaultOptions(cfg.Mode)
	options.NoiseIntensity = cfg.Noise
	options.NoiseSeed = cfg.Seed
	return renderer.Render(g, options)
}
