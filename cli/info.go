package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/digitorus/sigplace/config"
	"github.com/digitorus/sigplace/viewer"
)

// PageInfo describes one page as the viewer lays it out.
type PageInfo struct {
	Page         int     `json:"page"`
	WidthPt      float64 `json:"widthPt"`
	HeightPt     float64 `json:"heightPt"`
	RenderWidth  float64 `json:"renderWidth"`
	RenderHeight float64 `json:"renderHeight"`
}

// DocumentInfo is the output of the info command.
type DocumentInfo struct {
	Source string     `json:"source"`
	Pages  int        `json:"pages"`
	Layout []PageInfo `json:"layout"`
}

func InfoCommand() {
	infoFlags := flag.NewFlagSet("info", flag.ExitOnError)
	var s settings
	s.register(infoFlags)

	infoFlags.Usage = func() {
		fmt.Printf("Usage: %s info [options]\n\n", os.Args[0])
		fmt.Println("Print the page count and per-page geometry of a document as JSON")
		fmt.Println("\nOptions:")
		infoFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s info -doc contract.pdf -width 824\n", os.Args[0])
		fmt.Printf("  %s info -pages 3\n", os.Args[0])
	}

	if err := infoFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Failed to parse info flags: %v", err)
	}

	cfg, err := s.load()
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}
	if err := Info(os.Stdout, cfg); err != nil {
		log.Println(err)
		osExit(1)
	}
}

// Info renders every page of the configured document and writes the
// resulting geometry to w.
func Info(w io.Writer, cfg config.Config) error {
	doc, err := openDocument(cfg.Document)
	if err != nil {
		return err
	}
	defer func() { _ = doc.Close() }()

	v := viewer.New(doc)
	v.Resize(cfg.Viewer.ContainerWidth)

	info := DocumentInfo{Source: cfg.Document.Path, Pages: v.PageCount()}
	if info.Source == "" {
		info.Source = "sample"
	}
	for page := 1; page <= v.PageCount(); page++ {
		v.GoTo(page)
		g, err := v.Render()
		if err != nil {
			return err
		}
		box, err := doc.PageSize(page)
		if err != nil {
			return err
		}
		info.Layout = append(info.Layout, PageInfo{
			Page:         page,
			WidthPt:      box.Dx(),
			HeightPt:     box.Dy(),
			RenderWidth:  g.Width,
			RenderHeight: g.Height,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
