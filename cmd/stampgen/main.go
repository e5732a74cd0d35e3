package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/tankstamp/stampgen/internal/augment"
	"github.com/tankstamp/stampgen/internal/batch"
	"github.com/tankstamp/stampgen/internal/core"
	"github.com/tankstamp/stampgen/internal/dictionary"
	"github.com/tankstamp/stampgen/internal/fonts"
	"github.com/tankstamp/stampgen/internal/gallery"
	"github.com/tankstamp/stampgen/internal/manifest"
	"github.com/tankstamp/stampgen/internal/output"
	"github.com/tankstamp/stampgen/internal/render"
	"github.com/tankstamp/stampgen/internal/scene"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	command := "generate"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "generate":
		return runGenerate(args)
	case "serve":
		return runServe(args)
	case "clean":
		return runClean(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected generate, serve or clean)\n", command)
		return 1
	}
}

// getConfigPath resolves the config file: explicit flag first, then the
// CONFIG_PATH environment variable, then config.yaml in the working
// directory.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.yaml")
}

// loadConfig loads the resolved config file, falling back to the built-in
// defaults when no file was explicitly requested and none exists.
func loadConfig(flagValue string) (*core.ServiceConfig, error) {
	path := getConfigPath(flagValue)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && flagValue == "" && os.Getenv("CONFIG_PATH") == "" {
			return core.DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config file %s not readable: %w", path, err)
	}
	return core.LoadConfig(path)
}

// resolutionValue parses --resolution. Both "512x256" and "512 256" are
// accepted; the two-token form arrives joined by normalizeArgs.
type resolutionValue struct {
	width  int
	height int
	set    bool
}

func (r *resolutionValue) String() string {
	if !r.set {
		return ""
	}
	return fmt.Sprintf("%dx%d", r.width, r.height)
}

func (r *resolutionValue) Set(value string) error {
	normalized := strings.NewReplacer("x", " ", "X", " ", ",", " ").Replace(value)
	parts := strings.Fields(normalized)
	if len(parts) != 2 {
		return fmt.Errorf("expected WIDTHxHEIGHT, got %q", value)
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("invalid width %q", parts[0])
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("invalid height %q", parts[1])
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", width, height)
	}
	r.width = width
	r.height = height
	r.set = true
	return nil
}

// normalizeArgs joins the two-token resolution form into one token so the
// flag package can parse it.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		out = append(out, arg)
		if arg == "--resolution" || arg == "-resolution" {
			if i+2 < len(args) && isUint(args[i+1]) && isUint(args[i+2]) {
				out = append(out, args[i+1]+"x"+args[i+2])
				i += 2
			}
		}
	}
	return out
}

func isUint(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type generateFlags struct {
	configPath string
	count      int
	dict       string
	outputDir  string
	resolution resolutionValue
	samples    int
	seed       int64
	seedSet    bool
	fontDir    string
	fontStyle  string
	pick       string
}

func parseGenerateFlags(args []string) (*generateFlags, error) {
	gf := &generateFlags{}
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.StringVar(&gf.configPath, "config", "", "path to the YAML config file")
	fs.IntVar(&gf.count, "count", 0, "number of samples to generate")
	fs.StringVar(&gf.dict, "dict", "", "path to the dictionary file")
	fs.StringVar(&gf.outputDir, "output", "", "output directory")
	fs.Var(&gf.resolution, "resolution", "output resolution as WIDTHxHEIGHT")
	fs.IntVar(&gf.samples, "samples", 0, "render quality samples")
	fs.Int64Var(&gf.seed, "seed", 0, "random seed (default: time-based)")
	fs.StringVar(&gf.fontDir, "font-dir", "", "directory containing fonts")
	fs.StringVar(&gf.fontStyle, "font-style", "", "preferred font style (industrial, monospace, default)")
	fs.StringVar(&gf.pick, "pick", "", "dictionary pick mode (random or cyclic)")

	if err := fs.Parse(normalizeArgs(args)); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			gf.seedSet = true
		}
	})
	return gf, nil
}

// applyFlags overlays explicit flags onto the loaded config.
func applyFlags(cfg *core.ServiceConfig, gf *generateFlags) {
	if gf.count > 0 {
		cfg.Count = gf.count
	}
	if gf.dict != "" {
		cfg.Dictionary = gf.dict
	}
	if gf.outputDir != "" {
		cfg.Output = gf.outputDir
	}
	if gf.resolution.set {
		cfg.Resolution.Width = gf.resolution.width
		cfg.Resolution.Height = gf.resolution.height
	}
	if gf.samples > 0 {
		cfg.Samples = gf.samples
	}
	if gf.fontDir != "" {
		cfg.FontDir = gf.fontDir
	}
	if gf.fontStyle != "" {
		cfg.FontStyle = gf.fontStyle
	}
	if gf.pick != "" {
		cfg.Pick = gf.pick
	}
}

func runGenerate(args []string) int {
	gf, err := parseGenerateFlags(args)
	if err != nil {
		return 1
	}

	cfg, err := loadConfig(gf.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	applyFlags(cfg, gf)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	seed := gf.seed
	if !gf.seedSet {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	entries, err := dictionary.Load(cfg.Dictionary)
	if err != nil {
		slog.Error("failed to load dictionary", "path", cfg.Dictionary, "error", err)
		return 1
	}
	selector, err := dictionary.NewSelector(entries, cfg.Pick, rnd)
	if err != nil {
		slog.Error("failed to set up text selection", "error", err)
		return 1
	}

	catalog, err := fonts.NewCatalog(cfg.FontDir, cfg.FontStyle)
	if err != nil {
		slog.Error("failed to load fonts", "font_dir", cfg.FontDir, "error", err)
		return 1
	}

	writer, err := output.NewWriter(cfg.Output)
	if err != nil {
		slog.Error("failed to prepare output directory", "output", cfg.Output, "error", err)
		return 1
	}

	renderer := render.NewSoftware()
	defer func() {
		if cerr := renderer.Close(); cerr != nil {
			slog.Warn("failed to close renderer", "error", cerr)
		}
	}()

	// A broken manifest degrades to a run without bookkeeping.
	var ms manifest.ManifestService
	if cfg.Database.Type != "" {
		ms, err = manifest.NewManifest(cfg.Database.Type, cfg.Database.ConnectionString)
		if err != nil {
			slog.Warn("manifest unavailable, continuing without it", "error", err)
			ms = nil
		} else {
			defer func() {
				if cerr := ms.Close(); cerr != nil {
					slog.Warn("failed to close manifest", "error", cerr)
				}
			}()
		}
	}

	randomizer := scene.NewRandomizer(cfg, catalog, rnd)
	augmentConfigs := make([]augment.CommandConfig, 0, len(cfg.Augment))
	for _, c := range cfg.Augment {
		augmentConfigs = append(augmentConfigs, augment.CommandConfig{Name: c.Name, Params: c.Params})
	}

	driver, err := batch.NewDriver(selector, randomizer, renderer, augmentConfigs, writer, ms,
		render.Options{
			Width:   cfg.Resolution.Width,
			Height:  cfg.Resolution.Height,
			Samples: cfg.Samples,
		}, seed)
	if err != nil {
		slog.Error("failed to assemble batch driver", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := driver.Run(ctx, cfg.Count)
	if err != nil {
		slog.Error("batch run aborted", "error", err)
		return 1
	}
	if result.Generated == 0 {
		slog.Error("no samples were generated", "failed", result.Failed)
		return 1
	}
	return 0
}

func runServe(args []string) int {
	var configPath string
	var port int
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "path to the YAML config file")
	fs.IntVar(&port, "port", 0, "port to listen on")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if port > 0 {
		cfg.Gallery.Port = port
	}

	ms, err := manifest.NewManifest(cfg.Database.Type, cfg.Database.ConnectionString)
	if err != nil {
		slog.Error("failed to open manifest", "error", err)
		return 1
	}
	defer func() {
		if cerr := ms.Close(); cerr != nil {
			slog.Warn("failed to close manifest", "error", cerr)
		}
	}()

	server := gallery.DefineServer()
	service := gallery.NewGalleryService(cfg, ms)
	service.SetRoutes(server)

	portString := fmt.Sprintf(":%d", cfg.Gallery.Port)

	go func() {
		if err := server.Start(portString); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
		return 1
	}
	return 0
}

func runClean(args []string) int {
	var configPath string
	var outputDir string
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "path to the YAML config file")
	fs.StringVar(&outputDir, "output", "", "output directory to clean")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if outputDir != "" {
		cfg.Output = outputDir
	}

	writer, err := output.NewWriter(cfg.Output)
	if err != nil {
		slog.Error("failed to open output directory", "output", cfg.Output, "error", err)
		return 1
	}
	if err := writer.Clean(); err != nil {
		slog.Error("failed to clean output directory", "output", cfg.Output, "error", err)
		return 1
	}
	slog.Info("output directory cleaned", "output", cfg.Output)
	return 0
}
