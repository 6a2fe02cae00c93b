package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/digitorus/sigplace"
	"github.com/digitorus/sigplace/capture"
	"github.com/digitorus/sigplace/config"
	"github.com/digitorus/sigplace/placement"
)

const sessionHelp = `Commands:
  draw x y x y ...   add a stroke to the pad
  commit             place the drawing on the current page
  clear              wipe the pad
  next | prev        change page
  goto n             show page n
  resize w           set the container width
  render             lay out the current page again
  drag ref dx dy     drag a placement by a delta
  move ref x y       set the position of a placement
  remove ref         delete a placement
  list               show all placements
  export [all]       hand off placements on rendered pages, or all of them
  quit               end the session
A ref is a placement id, its position in the list or "last".`

func SessionCommand() {
	sessionFlags := flag.NewFlagSet("session", flag.ExitOnError)
	var s settings
	s.register(sessionFlags)

	var format, out string
	sessionFlags.StringVar(&format, "format", "", "Output format (json, log, pdf), overrides the config")
	sessionFlags.StringVar(&out, "out", "", "Output file, overrides the config")

	sessionFlags.Usage = func() {
		fmt.Printf("Usage: %s session [options]\n\n", os.Args[0])
		fmt.Println("Run an editing session reading one command per line from stdin")
		fmt.Println("\nOptions:")
		sessionFlags.PrintDefaults()
		fmt.Println()
		fmt.Println(sessionHelp)
	}

	if err := sessionFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Failed to parse session flags: %v", err)
	}

	cfg, err := s.load()
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}
	if format != "" {
		cfg.Output.Format = format
	}
	if out != "" {
		cfg.Output.Path = out
	}
	if err := cfg.ValidateFields(); err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	if err := Session(os.Stdin, os.Stdout, cfg); err != nil {
		log.Println(err)
		osExit(1)
	}
}

// Session drives an editor from line commands read from in and reports to
// out. Failing commands are reported and the session continues.
func Session(in io.Reader, out io.Writer, cfg config.Config) error {
	doc, err := openDocument(cfg.Document)
	if err != nil {
		return err
	}
	defer func() { _ = doc.Close() }()

	notifier := sigplace.NotifierFunc(func(msg string) {
		_, _ = fmt.Fprintln(out, "alert:", msg)
	})
	ed, err := newEditor(cfg, doc, out, notifier)
	if err != nil {
		return err
	}

	s := &session{ed: ed, out: out}
	s.show(ed.Viewer().Current())

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := s.run(fields[0], fields[1:]); err != nil {
			s.printf("error: %v", err)
		}
	}
	return scanner.Err()
}

type session struct {
	ed   *sigplace.Editor
	out  io.Writer
	last string
}

func (s *session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}

// show reports the page that became visible and lays it out so its
// placements can be exported.
func (s *session) show(page int) {
	s.printf("page %d of %d", page, s.ed.Viewer().PageCount())
	if _, err := s.ed.RenderPage(); err != nil {
		s.printf("error: %v", err)
	}
}

func (s *session) run(cmd string, args []string) error {
	ed := s.ed
	switch cmd {
	case "help":
		s.printf("%s", sessionHelp)

	case "draw":
		pad := ed.Pad()
		if pad == nil {
			return errors.New("the signature is an image and cannot be drawn on")
		}
		vals, err := floats(args, -1)
		if err != nil {
			return err
		}
		if len(vals) < 2 || len(vals)%2 != 0 {
			return errors.New("draw needs x y pairs")
		}
		points := make([]capture.Point, 0, len(vals)/2)
		for i := 0; i < len(vals); i += 2 {
			points = append(points, capture.Point{X: vals[i], Y: vals[i+1]})
		}
		pad.Stroke(points...)

	case "commit":
		rec, err := ed.CommitSignature()
		if err != nil {
			if errors.Is(err, capture.ErrEmptySignature) {
				// Already shown through the notifier.
				return nil
			}
			return err
		}
		s.last = rec.ID
		s.printf("placed %s on page %d", rec.ID, rec.PageIndex+1)

	case "clear":
		ed.ClearSignature()

	case "next", "prev", "goto":
		var page int
		switch cmd {
		case "next":
			page = ed.Next()
		case "prev":
			page = ed.Prev()
		default:
			n, err := ints(args, 1)
			if err != nil {
				return err
			}
			page = ed.GoTo(n[0])
		}
		s.show(page)

	case "resize":
		w, err := floats(args, 1)
		if err != nil {
			return err
		}
		s.printf("render width %g", ed.Resize(w[0]))

	case "render":
		g, err := ed.RenderPage()
		if err != nil {
			return err
		}
		s.printf("page %d: %gx%g", g.Page, g.Width, g.Height)

	case "drag":
		id, rest, err := s.ref(args)
		if err != nil {
			return err
		}
		d, err := floats(rest, 2)
		if err != nil {
			return err
		}
		if err := ed.BeginDrag(id); err != nil {
			return err
		}
		if _, err := ed.DragBy(d[0], d[1]); err != nil {
			ed.CancelDrag()
			return err
		}
		rec, err := ed.EndDrag()
		if err != nil {
			return err
		}
		s.printf("moved %s to (%g, %g)", rec.ID, rec.X, rec.Y)

	case "move":
		id, rest, err := s.ref(args)
		if err != nil {
			return err
		}
		p, err := floats(rest, 2)
		if err != nil {
			return err
		}
		ed.MovePlacement(id, p[0], p[1])
		s.printf("moved %s to (%g, %g)", id, p[0], p[1])

	case "remove":
		id, _, err := s.ref(args)
		if err != nil {
			return err
		}
		ed.RemovePlacement(id)
		if id == s.last {
			s.last = ""
		}
		s.printf("removed %s", id)

	case "list":
		n := 0
		for rec := range ed.Placements() {
			n++
			s.printf("%d. %s page %d at (%g, %g)", n, rec.ID, rec.PageIndex+1, rec.X, rec.Y)
		}
		if n == 0 {
			s.printf("no placements")
		}

	case "export":
		all := len(args) > 0 && args[0] == "all"
		batch, err := ed.Export(all)
		if err != nil {
			return err
		}
		if len(batch.Bundles) == 0 {
			s.printf("nothing to export")
		}

	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

// ref resolves the placement reference in args[0] to an id.
func (s *session) ref(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errors.New("missing placement")
	}
	arg, rest := args[0], args[1:]
	if arg == "last" {
		if s.last == "" {
			return "", nil, errors.New("nothing placed yet")
		}
		return s.last, rest, nil
	}
	if n, err := strconv.Atoi(arg); err == nil {
		all := slices.Collect(s.ed.Placements())
		if n < 1 || n > len(all) {
			return "", nil, fmt.Errorf("no placement %d", n)
		}
		return all[n-1].ID, rest, nil
	}
	if !slices.ContainsFunc(slices.Collect(s.ed.Placements()), func(rec placement.Signature) bool {
		return rec.ID == arg
	}) {
		return "", nil, fmt.Errorf("%w: %s", sigplace.ErrUnknownPlacement, arg)
	}
	return arg, rest, nil
}

// floats parses args as numbers. A non-negative n requires exactly n values.
func floats(args []string, n int) ([]float64, error) {
	if n >= 0 && len(args) != n {
		return nil, fmt.Errorf("expected %d number(s), got %d", n, len(args))
	}
	vals := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		vals[i] = v
	}
	return vals, nil
}

func ints(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d integer(s), got %d", n, len(args))
	}
	vals := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", a)
		}
		vals[i] = v
	}
	return vals, nil
}
