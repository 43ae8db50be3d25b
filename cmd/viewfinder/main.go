package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/ironsheep/viewfinder/internal/capture"
	"github.com/ironsheep/viewfinder/internal/config"
	"github.com/ironsheep/viewfinder/internal/display"
	"github.com/ironsheep/viewfinder/internal/imaging"
	"github.com/ironsheep/viewfinder/internal/pipeline"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var cfgPath, sourceDir, device string
	var maxFrames int
	var writeConfig, showVersion bool

	flag.StringVar(&cfgPath, "config", "", "config file (default "+config.GetConfigPath()+" if it exists)")
	flag.StringVar(&sourceDir, "source", "", "directory of stills to replay as camera frames")
	flag.StringVar(&device, "display", "", "framebuffer device or file to draw into")
	flag.IntVar(&maxFrames, "frames", -1, "stop after this many frames (0 runs forever)")
	flag.BoolVar(&writeConfig, "write-config", false, "write the effective config to -config and exit")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("viewfinder %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	debug := os.Getenv("VIEWFINDER_LOG_LEVEL") == "debug"
	if debug {
		log.Printf("Viewfinder v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if sourceDir != "" {
		cfg.Camera.SourceDir = sourceDir
	}
	if device != "" {
		cfg.Display.Device = device
	}
	if maxFrames >= 0 {
		cfg.Pipeline.MaxFrames = maxFrames
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if writeConfig {
		if cfgPath == "" {
			cfgPath = config.GetConfigPath()
		}
		if err := cfg.SaveToFile(cfgPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		log.Printf("Wrote %s", cfgPath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, debug); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Viewfinder error: %v", err)
	}
}

// loadConfig reads path, or the default config file when path is empty and
// one exists, and applies environment overrides.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path == "" {
		if _, err := os.Stat(config.GetConfigPath()); err == nil {
			path = config.GetConfigPath()
		}
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, debug bool) error {
	var fbLogger *log.Logger
	if debug {
		fbLogger = log.Default()
	}

	fb, err := display.Open(cfg.Display.Device, cfg.Display.Geometry, fbLogger)
	if err != nil {
		return err
	}
	defer fb.Close()

	if err := fb.Clear(); err != nil {
		return err
	}

	src, err := capture.NewFileSource(cfg.Camera.SourceDir)
	if err != nil {
		return err
	}

	cam := cfg.Camera.Geometry
	frame, err := imaging.NewImage(cam.Pitch, cam.Width, cam.Height, cam.Format)
	if err != nil {
		return err
	}

	opts := cfg.Options()
	opts.Logger = log.Default()
	p, err := pipeline.New(src, frame, fb.Image(), imaging.NewCropper(fb.Cache()), opts)
	if err != nil {
		return err
	}

	log.Printf("Let's start capturing camera frames: %d stills from %s, window %s onto %s",
		src.Len(), cfg.Camera.SourceDir, p.Window(), cfg.Display.Device)

	err = p.Run(ctx)
	stats := p.Stats()
	log.Printf("Stopped after %d frames (%d errors)", stats.Frames, stats.Errors)
	return err
}
