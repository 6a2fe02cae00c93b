package cli

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/digitorus/sigplace"
	"github.com/digitorus/sigplace/capture"
	"github.com/digitorus/sigplace/config"
	"github.com/digitorus/sigplace/drag"
	"github.com/digitorus/sigplace/export"
	"github.com/digitorus/sigplace/stamp"
)

// settings holds the flags shared by all commands.
type settings struct {
	config string
	doc    string
	pages  int
	width  float64
}

func (s *settings) register(fs *flag.FlagSet) {
	fs.StringVar(&s.config, "config", "", "Config file (TOML or YAML), "+config.DefaultLocation+" is used when present")
	fs.StringVar(&s.doc, "doc", "", "PDF document to annotate, the bundled sample when empty")
	fs.IntVar(&s.pages, "pages", 0, "Page count of the bundled sample")
	fs.Float64Var(&s.width, "width", 0, "Viewer container width in pixels")
}

// load reads the config file and applies the flag overrides.
func (s *settings) load() (config.Config, error) {
	path := s.config
	if path == "" {
		if _, err := os.Stat(config.DefaultLocation); err == nil {
			path = config.DefaultLocation
		}
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return config.Config{}, err
		}
	}

	if s.doc != "" {
		cfg.Document.Path = s.doc
	}
	if s.pages > 0 {
		cfg.Document.SamplePages = s.pages
	}
	if s.width > 0 {
		cfg.Viewer.ContainerWidth = s.width
	}
	return cfg, cfg.ValidateFields()
}

func openDocument(cfg config.DocumentConfig) (*sigplace.Document, error) {
	if cfg.Path == "" {
		return sigplace.Sample(cfg.SamplePages), nil
	}
	return sigplace.OpenFile(cfg.Path)
}

func newSurface(cfg config.PadConfig) (capture.Surface, error) {
	if cfg.Signature != "" {
		return capture.OpenStill(cfg.Signature)
	}
	ink, err := cfg.InkColor()
	if err != nil {
		return nil, err
	}
	return capture.NewPad(cfg.Width, cfg.Height, capture.WithPenWidth(cfg.PenWidth), capture.WithInk(ink)), nil
}

// newConsumer returns the export consumer selected by cfg. Console output
// goes to w.
func newConsumer(cfg config.OutputConfig, doc *sigplace.Document, w io.Writer) (export.Consumer, error) {
	switch cfg.Format {
	case config.FormatLog:
		return export.LogConsumer{Logger: log.New(w, "", 0)}, nil
	case config.FormatJSON:
		if cfg.Path == "" {
			return export.NewJSONConsumer(w), nil
		}
		return fileConsumer{path: cfg.Path, next: func(f io.Writer) export.Consumer {
			return export.NewJSONConsumer(f)
		}}, nil
	case config.FormatPDF:
		if cfg.Path == "" {
			return nil, errors.New("pdf output requires a path")
		}
		source, size := doc.Source()
		return fileConsumer{path: cfg.Path, next: func(f io.Writer) export.Consumer {
			return stamp.NewConsumer(source, size, f, stamp.WithAuthor(cfg.Author))
		}}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", cfg.Format)
	}
}

// fileConsumer rewrites path with every batch it receives. The file is
// only replaced when the wrapped consumer succeeds.
type fileConsumer struct {
	path string
	next func(io.Writer) export.Consumer
}

func (c fileConsumer) Consume(b export.Batch) error {
	var buf bytes.Buffer
	if err := c.next(&buf).Consume(b); err != nil {
		return err
	}
	if err := os.WriteFile(c.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Printf("Wrote %d placement(s) to %s", len(b.Bundles), c.path)
	return nil
}

// newEditor builds an editor for cfg on doc.
func newEditor(cfg config.Config, doc *sigplace.Document, w io.Writer, notifier sigplace.Notifier) (*sigplace.Editor, error) {
	surface, err := newSurface(cfg.Pad)
	if err != nil {
		return nil, err
	}
	consumer, err := newConsumer(cfg.Output, doc, w)
	if err != nil {
		return nil, err
	}

	var controller drag.Controller = drag.NewParentBounded()
	if !cfg.Viewer.Bounded {
		controller = drag.NewFree()
	}

	ed := sigplace.NewEditor(doc,
		sigplace.WithSurface(surface),
		sigplace.WithDragController(controller),
		sigplace.WithConsumer(consumer),
		sigplace.WithNotifier(notifier),
		sigplace.WithSignatureWidth(cfg.Viewer.SignatureWidth),
	)
	ed.Resize(cfg.Viewer.ContainerWidth)
	return ed, nil
}
