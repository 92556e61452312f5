// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command sceneframe renders frames of a scene file to PNG images.
//
// Render the initial state of a scene:
//
//	sceneframe -width 1280 -height 720 -output title.png title.yaml
//
// Render frames 0 to 99 of a four second animation at 25 fps:
//
//	sceneframe -fps 25 -duration 4s -from 0 -to 99 -output 'frames/%04d.png' title.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/gogpu/sceneframe"
	"github.com/gogpu/sceneframe/clock"
	"github.com/gogpu/sceneframe/device"
)

type config struct {
	scene        string
	width        int
	height       int
	fps          float64
	duration     time.Duration
	autoDuration bool
	from         int
	to           int
	output       string
	backend      string
	dpr          float64
	correction   int
	verbose      bool
	list         bool
}

func parse(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("sceneframe", flag.ContinueOnError)
	fs.SetOutput(stderr)

	c := &config{}
	fs.IntVar(&c.width, "width", 1280, "frame width")
	fs.IntVar(&c.height, "height", 720, "frame height")
	fs.Float64Var(&c.fps, "fps", 25, "animation frame rate")
	fs.DurationVar(&c.duration, "duration", 0, "animation length; 0 renders the static scene")
	fs.BoolVar(&c.autoDuration, "auto-duration", false, "use the animation length found in the scene")
	fs.IntVar(&c.from, "from", 0, "first frame to render")
	fs.IntVar(&c.to, "to", -1, "last frame to render; -1 renders only -from")
	fs.StringVar(&c.output, "output", "frame.png", "output file; a range needs a printf verb such as %04d")
	fs.StringVar(&c.backend, "backend", "", "device backend (default: best available)")
	fs.Float64Var(&c.dpr, "dpr", 1, "device pixel ratio")
	fs.IntVar(&c.correction, "correction", clock.DefaultCorrection, "frame-count correction of the animation clock")
	fs.BoolVar(&c.verbose, "v", false, "log debug output to stderr")
	fs.BoolVar(&c.list, "list-backends", false, "list available backends and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: sceneframe [flags] scene.yaml\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.list {
		return c, nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected one scene file")
	}
	c.scene = fs.Arg(0)
	if c.to < 0 {
		c.to = c.from
	}
	if c.from < 0 || c.to < c.from {
		return nil, fmt.Errorf("invalid frame range %d..%d", c.from, c.to)
	}
	if c.to > c.from && !strings.Contains(c.output, "%") {
		return nil, fmt.Errorf("output %q has no frame number verb for a range", c.output)
	}
	return c, nil
}

func (c *config) options() []sceneframe.Option {
	opts := []sceneframe.Option{
		sceneframe.WithDevicePixelRatio(c.dpr),
		sceneframe.WithFrameCorrection(c.correction),
	}
	if c.backend != "" {
		opts = append(opts, sceneframe.WithBackend(c.backend))
	}
	if c.autoDuration {
		opts = append(opts, sceneframe.WithAutoDuration())
	}
	return opts
}

func (c *config) path(frame int) string {
	if strings.Contains(c.output, "%") {
		return fmt.Sprintf(c.output, frame)
	}
	return c.output
}

func run(args []string, stdout, stderr io.Writer) error {
	c, err := parse(args, stderr)
	if err != nil {
		return err
	}
	if c.list {
		for _, name := range device.Available() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}
	if c.verbose {
		sceneframe.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	p, err := sceneframe.NewProducer(c.scene, c.options()...)
	if err != nil {
		return err
	}
	defer p.Close()

	count := c.to - c.from + 1
	var bar *progressbar.ProgressBar
	if count > 1 && isTerminal(stderr) {
		bar = progressbar.NewOptions(count,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("rendering"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish())
		defer bar.Close()
	}

	for frame := c.from; frame <= c.to; frame++ {
		img, err := p.GetImage(sceneframe.Request{
			Width:    c.width,
			Height:   c.height,
			Position: frame,
			FPS:      c.fps,
			Duration: c.duration,
		})
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		if err := writePNG(c.path(frame), img); err != nil {
			return err
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar == nil {
		fmt.Fprintf(stdout, "rendered %d frame(s) to %s\n", count, c.path(c.from))
	}
	return nil
}

func writePNG(path string, img *sceneframe.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img.RGBA()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "sceneframe: %v\n", err)
		os.Exit(1)
	}
}
