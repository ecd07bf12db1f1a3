// Command rmrender renders animated noise volumes to a PNG or animated GIF.
//
// Usage:
//
//	rmrender -n 150 -frames 1 -out volume.png
//	rmrender -n 96 -frames 60 -scale 384 -out volume.gif
//
// Every flag defaults to a RAYMARCH_* environment variable, which may also be
// set in a .env file in the working directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gogpu/raymarch"
	"github.com/gogpu/raymarch/gpu"
	"github.com/gogpu/raymarch/internal/cmdenv"
	"github.com/gogpu/raymarch/noise"
)

type config struct {
	n        int
	frames   int
	seed     int64
	useGPU   bool
	scale    int
	out      string
	workers  int
	step     float64
	maxSteps int
	delay    int
	verbose  bool
}

// parseFlags reads cfg from args, with defaults taken from the environment.
func parseFlags(fs *flag.FlagSet, args []string) (config, error) {
	var cfg config
	fs.IntVar(&cfg.n, "n", cmdenv.Int("RAYMARCH_N", 150), "grid and frame resolution")
	fs.IntVar(&cfg.frames, "frames", cmdenv.Int("RAYMARCH_FRAMES", 1), "number of frames; more than one writes a GIF")
	fs.Int64Var(&cfg.seed, "seed", int64(cmdenv.Int("RAYMARCH_SEED", 1)), "noise seed")
	fs.BoolVar(&cfg.useGPU, "gpu", cmdenv.Bool("RAYMARCH_GPU", false), "march on the GPU when available")
	fs.IntVar(&cfg.scale, "scale", cmdenv.Int("RAYMARCH_SCALE", 0), "output image size in pixels (0 = resolution)")
	fs.StringVar(&cfg.out, "out", cmdenv.Get("RAYMARCH_OUT", "raymarch.png"), "output file (.png or .gif)")
	fs.IntVar(&cfg.workers, "workers", cmdenv.Int("RAYMARCH_WORKERS", 0), "CPU workers (0 = GOMAXPROCS)")
	fs.Float64Var(&cfg.step, "step", cmdenv.Float("RAYMARCH_STEP", float64(raymarch.DefaultStepSize)), "march step in cells")
	fs.IntVar(&cfg.maxSteps, "max-steps", cmdenv.Int("RAYMARCH_MAX_STEPS", raymarch.DefaultMaxSteps), "march step budget")
	fs.IntVar(&cfg.delay, "delay", cmdenv.Int("RAYMARCH_GIF_DELAY", 4), "GIF frame delay in 1/100 s")
	fs.BoolVar(&cfg.verbose, "v", cmdenv.Bool("RAYMARCH_VERBOSE", false), "debug logging")
	err := fs.Parse(args)
	return cfg, err
}

func main() {
	_ = godotenv.Load()
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	raymarch.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("rmrender failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	if err := cmdenv.Positive("frames", cfg.frames); err != nil {
		return err
	}
	opts := []raymarch.Option{
		raymarch.WithStepSize(float32(cfg.step)),
		raymarch.WithMaxSteps(cfg.maxSteps),
		raymarch.WithWorkers(cfg.workers),
	}
	if cfg.useGPU {
		if a := gpu.NewAccelerator(); a != nil {
			opts = append(opts, raymarch.WithAccelerator(a))
		}
	}

	rc, err := raymarch.NewRendererContext(cfg.n, opts...)
	if err != nil {
		return err
	}
	if err := rc.Init(); err != nil {
		return err
	}
	defer rc.Close()

	field := noise.New(cfg.seed)
	d := raymarch.NewDispatcher(rc)
	cam := raymarch.DefaultCamera()

	start := time.Now()
	images := make([]*image.Gray, 0, cfg.frames)
	for i := 0; i < cfg.frames; i++ {
		grid, err := field.Generate(ctx, cfg.n, i)
		if err != nil {
			return fmt.Errorf("generate frame %d: %w", i, err)
		}
		frame, err := d.Render(ctx, raymarch.Snapshot{Grid: grid, Camera: &cam, Generation: uint64(i + 1)})
		if err != nil {
			return fmt.Errorf("render frame %d: %w", i, err)
		}
		images = append(images, grayImage(frame, cfg.scale))
	}
	logger.Info("rendered",
		"frames", cfg.frames,
		"n", cfg.n,
		"accelerator", rc.AcceleratorName(),
		"elapsed", time.Since(start))

	f, err := os.Create(cfg.out)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(cfg.out), ".gif") || len(images) > 1 {
		err = encodeGIF(f, images, cfg.delay)
	} else {
		err = png.Encode(f, images[0])
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", cfg.out, err)
	}
	logger.Info("saved", "path", cfg.out)
	return nil
}

// grayImage returns the frame as a grayscale image of side size, or at its
// native resolution when size is not positive.
func grayImage(f *raymarch.Frame, size int) *image.Gray {
	if size <= 0 || size == f.Size() {
		return f.Gray()
	}
	rgba := f.Scale(size)
	g := image.NewGray(rgba.Bounds())
	for i := range g.Pix {
		g.Pix[i] = rgba.Pix[i*4]
	}
	return g
}

var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

func encodeGIF(f *os.File, images []*image.Gray, delay int) error {
	anim := &gif.GIF{}
	for _, g := range images {
		p := image.NewPaletted(g.Bounds(), grayPalette)
		copy(p.Pix, g.Pix)
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(f, anim)
}
