// Command rmview shows a live ray-marched noise volume in a window.
//
// A simulation goroutine publishes a new noise grid per tick to a Mailbox;
// the dispatcher renders the newest one and the window displays the latest
// completed frame. Press Escape to quit.
//
// Flags default to RAYMARCH_* environment variables (see rmrender), which
// may also be set in a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/joho/godotenv"

	"github.com/gogpu/raymarch"
	"github.com/gogpu/raymarch/gpu"
	"github.com/gogpu/raymarch/internal/cmdenv"
	"github.com/gogpu/raymarch/noise"
)

func main() {
	_ = godotenv.Load()

	n := flag.Int("n", cmdenv.Int("RAYMARCH_N", 96), "grid and frame resolution")
	size := flag.Int("size", cmdenv.Int("RAYMARCH_SCALE", 600), "window size in pixels")
	seed := flag.Int64("seed", int64(cmdenv.Int("RAYMARCH_SEED", 1)), "noise seed")
	tps := flag.Int("tps", cmdenv.Int("RAYMARCH_TPS", 30), "simulation ticks per second")
	useGPU := flag.Bool("gpu", cmdenv.Bool("RAYMARCH_GPU", false), "march on the GPU when available")
	verbose := flag.Bool("v", cmdenv.Bool("RAYMARCH_VERBOSE", false), "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	raymarch.SetLogger(logger)

	if err := run(*n, *size, *seed, *tps, *useGPU, logger); err != nil {
		logger.Error("rmview failed", "err", err)
		os.Exit(1)
	}
}

func run(n, size int, seed int64, tps int, useGPU bool, logger *slog.Logger) error {
	if err := cmdenv.Positive("size", size); err != nil {
		return err
	}
	if tps < 1 {
		tps = 1
	}
	var opts []raymarch.Option
	if useGPU {
		if a := gpu.NewAccelerator(); a != nil {
			opts = append(opts, raymarch.WithAccelerator(a))
		}
	}
	rc, err := raymarch.NewRendererContext(n, opts...)
	if err != nil {
		return err
	}
	if err := rc.Init(); err != nil {
		return err
	}
	defer rc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mb := raymarch.NewMailbox()
	v := &viewer{ctx: ctx, size: size}

	go simulate(ctx, mb, noise.New(seed), n, time.Second/time.Duration(tps), logger)

	d := raymarch.NewDispatcher(rc)
	go func() {
		err := d.Run(ctx, mb, func(f *raymarch.Frame) error {
			v.latest.Store(f.Scale(size))
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("dispatcher stopped", "err", err)
		}
	}()

	ebiten.SetWindowTitle("rmview (" + rc.AcceleratorName() + ")")
	ebiten.SetWindowSize(size, size)
	err = ebiten.RunGame(v)
	stop()

	s := d.Stats()
	logger.Info("stopped",
		"rendered", s.Rendered,
		"abandoned", s.Abandoned,
		"skipped", s.Skipped,
		"dropped", mb.Dropped())
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// simulate publishes one noise grid per tick until ctx is done.
func simulate(ctx context.Context, mb *raymarch.Mailbox, field *noise.Field, n int, tick time.Duration, logger *slog.Logger) {
	t := time.NewTicker(tick)
	defer t.Stop()

	cam := raymarch.DefaultCamera()
	for seq := 0; ; seq++ {
		grid, err := field.Generate(ctx, n, seq)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("noise generation failed", "seq", seq, "err", err)
			}
			return
		}
		mb.Publish(grid, cam)

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

type viewer struct {
	ctx    context.Context
	size   int
	latest atomic.Pointer[image.RGBA]
	img    *ebiten.Image
}

func (v *viewer) Update() error {
	if v.ctx.Err() != nil || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	frame := v.latest.Load()
	if frame == nil {
		return
	}
	if v.img == nil {
		v.img = ebiten.NewImage(v.size, v.size)
	}
	v.img.WritePixels(frame.Pix)
	screen.DrawImage(v.img, nil)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.size, v.size
}
