// Command versemark renders USFM token streams to HTML and highlights
// translation-note quotes in rendered verses using word alignments.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/versemark/core/align"
	"github.com/FocuswithJustin/versemark/core/annotate"
	"github.com/FocuswithJustin/versemark/core/errors"
	"github.com/FocuswithJustin/versemark/core/highlight"
	"github.com/FocuswithJustin/versemark/core/render"
	"github.com/FocuswithJustin/versemark/core/usfm"
	"github.com/FocuswithJustin/versemark/core/xml"
	"github.com/FocuswithJustin/versemark/internal/config"
	"github.com/FocuswithJustin/versemark/internal/fileio"
	"github.com/FocuswithJustin/versemark/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for versemark.
var CLI struct {
	Globals

	Render    RenderCmd    `cmd:"" help:"Render a JSON token stream to HTML"`
	Locate    LocateCmd    `cmd:"" help:"Locate a quote in a verse alignment"`
	Highlight HighlightCmd `cmd:"" help:"Locate a quote and highlight it in verse HTML"`
	Annotate  AnnotateCmd  `cmd:"" help:"Highlight every note quote of a verse"`
	Check     CheckCmd     `cmd:"" help:"Check rendered HTML is well formed and list its anchors"`
	Init      InitCmd      `cmd:"" help:"Write the effective configuration to the config file"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// Globals are flags shared by every command.
type Globals struct {
	Config    string `name:"config" short:"c" help:"Config file path" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`
	NoColor   bool   `name:"no-color" help:"Disable colored output"`
}

// runtime carries what every command needs once flags are parsed.
type runtime struct {
	ctx        context.Context
	cfg        *config.Config
	configPath string
	log        *slog.Logger
	stdout     io.Writer
	stderr     io.Writer
}

// setup loads configuration and initializes logging for one run.
func setup(g *Globals) (*runtime, func(), error) {
	path := g.Config
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, nil, err
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.LogFormat = g.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if g.NoColor {
		color.NoColor = true
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	format, _ := logging.ParseFormat(cfg.LogFormat)
	logging.InitLogger(level, format)

	cleanup := func() {}
	if cfg.DiagnosticsLog != "" {
		f, err := os.OpenFile(cfg.DiagnosticsLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open diagnostics log: %w", err)
		}
		logging.AddSink(f)
		cleanup = func() { f.Close() }
	}

	ctx := logging.WithRunID(context.Background(), uuid.NewString())
	logging.Debug("config loaded", "path", path, "run_id", logging.GetRunID(ctx))
	return &runtime{
		ctx:        ctx,
		cfg:        cfg,
		configPath: path,
		log:        logging.LoggerFromContext(ctx),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}, cleanup, nil
}

// write sends data to path, or to stdout for "-".
func (rt *runtime) write(path string, data []byte) error {
	if path == fileio.Stdio {
		_, err := rt.stdout.Write(data)
		return err
	}
	return fileio.WriteFile(path, data)
}

// RenderCmd renders a token stream.
type RenderCmd struct {
	Input     string `arg:"" help:"Token stream JSON (.xz and .gz accepted, - for stdin)"`
	Out       string `short:"o" help:"Output path (- for stdout)" default:"-"`
	Book      string `help:"Book id to use before any \\id marker (e.g. GEN)"`
	Document  bool   `help:"Wrap the output in a standalone XHTML page"`
	Footnotes string `help:"Also write the footnote list as JSON to this path" type:"path"`
}

func (c *RenderCmd) Run(rt *runtime) error {
	data, err := fileio.ReadFile(c.Input)
	if err != nil {
		return err
	}
	tokens, err := usfm.DecodeTokens(data)
	if err != nil {
		return err
	}

	res := render.Render(tokens, render.Options{
		Book:         usfm.BookKey(c.Book),
		ChapterLabel: rt.cfg.ChapterLabel,
		Logger:       rt.log,
	})
	if rt.cfg.FixLinks {
		res.HTML = render.FixLinks(res.HTML)
	}
	out := res.HTML
	if c.Document {
		out = render.Document(res)
	}
	if err := rt.write(c.Out, []byte(out)); err != nil {
		return err
	}

	if c.Footnotes != "" {
		fn, err := json.MarshalIndent(res.Footnotes, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal footnotes: %w", err)
		}
		if err := fileio.WriteFile(c.Footnotes, fn); err != nil {
			return err
		}
	}

	if n := len(res.Defects); n > 0 {
		color.New(color.FgYellow).Fprintf(rt.stderr, "%d structural defect(s) in %s\n", n, c.Input)
	}
	return nil
}

// LocateCmd locates a quote in an alignment tree.
type LocateCmd struct {
	Tree       string `required:"" help:"Alignment tree JSON" type:"path"`
	Quote      string `required:"" help:"Original-language quote (words, & or … between parts)"`
	Occurrence int    `help:"Occurrence of the quote in the verse" default:"1"`
	Ref        string `help:"Verse reference the tree must belong to (e.g. \"GEN 1:1\")"`
}

func (c *LocateCmd) locate() (align.MatchGroups, error) {
	data, err := fileio.ReadFile(c.Tree)
	if err != nil {
		return nil, err
	}
	tree, err := align.DecodeTree(data)
	if err != nil {
		return nil, err
	}
	quote, err := align.ParseQuote(c.Quote)
	if err != nil {
		return nil, err
	}
	id := align.ContextID{Chapter: tree.Chapter, Verse: tree.Verse, Quote: quote, Occurrence: c.Occurrence}
	if c.Ref != "" {
		ref, err := align.ParseReference(c.Ref)
		if err != nil {
			return nil, err
		}
		id.Chapter, id.Verse = ref.Chapter, ref.Verse
	}

	groups := align.LocateContext(tree, id)
	if groups == nil {
		return nil, &errors.AlignmentNotFoundError{
			Chapter:    id.Chapter,
			Verse:      id.Verse,
			Quote:      quote.String(),
			Occurrence: max(c.Occurrence, 1),
		}
	}
	return groups, nil
}

func (c *LocateCmd) Run(rt *runtime) error {
	groups, err := c.locate()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal groups: %w", err)
	}
	fmt.Fprintln(rt.stdout, string(data))
	split := ""
	if groups.Split() {
		split = " (split)"
	}
	color.New(color.FgGreen).Fprintf(rt.stderr, "%s%s\n", align.FlattenGroups(groups), split)
	return nil
}

// HighlightCmd locates a quote and highlights it in rendered verse HTML.
type HighlightCmd struct {
	LocateCmd
	HTML    string `name:"html" required:"" help:"Rendered verse HTML" type:"path"`
	Out     string `short:"o" help:"Output path (- for stdout)" default:"-"`
	Element string `help:"Highlight element name (defaults to the configured one)"`
}

func (c *HighlightCmd) Run(rt *runtime) error {
	src, err := fileio.ReadFile(c.HTML)
	if err != nil {
		return err
	}
	groups, err := c.locate()
	if err != nil {
		logging.HighlightMiss(rt.log, c.Ref, c.Quote, "locate")
		return err
	}
	element := c.Element
	if element == "" {
		element = rt.cfg.HighlightElement
	}
	marked, err := highlight.Highlight(string(src), groups, element)
	if err != nil {
		logging.HighlightMiss(rt.log, c.Ref, c.Quote, "highlight")
		return err
	}
	return rt.write(c.Out, []byte(marked))
}

// AnnotateCmd highlights the quotes of a verse's notes.
type AnnotateCmd struct {
	HTML   string `name:"html" required:"" help:"Rendered verse HTML" type:"path"`
	Tree   string `help:"Alignment tree JSON; omit when the verse has no alignment" type:"path"`
	Notes  string `required:"" help:"Notes as YAML or JSON (id, quote, occurrence, gl_quote)" type:"path"`
	Ref    string `required:"" help:"Verse reference (e.g. \"GEN 1:1\")"`
	Target string `help:"Raw translation text quoted in diagnostics" type:"path"`
	Source string `help:"Raw original-language text quoted in diagnostics" type:"path"`
	Out    string `short:"o" help:"Output path (- for stdout)" default:"-"`
}

func (c *AnnotateCmd) Run(rt *runtime) error {
	ref, err := align.ParseReference(c.Ref)
	if err != nil {
		return err
	}
	src, err := fileio.ReadFile(c.HTML)
	if err != nil {
		return err
	}
	v := annotate.Verse{Book: ref.Book, Chapter: ref.Chapter, Verse: ref.Verse, HTML: string(src)}

	if c.Tree != "" {
		data, err := fileio.ReadFile(c.Tree)
		if err != nil {
			return err
		}
		if v.Alignment, err = align.DecodeTree(data); err != nil {
			return err
		}
	}
	if v.TargetText, err = optionalText(c.Target); err != nil {
		return err
	}
	if v.SourceText, err = optionalText(c.Source); err != nil {
		return err
	}

	data, err := fileio.ReadFile(c.Notes)
	if err != nil {
		return err
	}
	var notes []annotate.Note
	if err := yaml.Unmarshal(data, &notes); err != nil {
		return fmt.Errorf("failed to parse notes: %w", err)
	}

	res := annotate.Annotate(v, notes, annotate.Options{
		Bible:       rt.cfg.Bible,
		SourceBible: rt.cfg.SourceBible,
		Element:     rt.cfg.HighlightElement,
		Ignore:      rt.cfg.QuotesToIgnore,
		Logger:      rt.log,
	})
	printDiagnostics(rt, res.Diagnostics)
	return rt.write(c.Out, []byte(res.HTML))
}

func optionalText(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := fileio.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func printDiagnostics(rt *runtime, diags []annotate.Diagnostic) {
	red := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)
	for _, d := range diags {
		red.Fprintf(rt.stderr, "%s [%s]\n", d.Title, d.ID)
		dim.Fprint(rt.stderr, d.Message)
		rt.log.Warn("diagnostic",
			"id", d.ID,
			"kind", string(d.Kind),
			"ref", d.Ref,
			"note", d.NoteID,
			"quote", d.Quote,
			"fix", d.Fix,
		)
	}
}

// CheckCmd checks rendered HTML.
type CheckCmd struct {
	Input string `arg:"" help:"Rendered HTML fragment (.xz and .gz accepted, - for stdin)"`
}

func (c *CheckCmd) Run(rt *runtime) error {
	data, err := fileio.ReadFile(c.Input)
	if err != nil {
		return err
	}
	doc, err := xml.ParseFragment(string(data))
	if err != nil {
		color.New(color.FgRed).Fprintf(rt.stderr, "%s: not well formed\n", c.Input)
		return err
	}
	ids := doc.IDs()
	footnotes := doc.FootnoteKeys()
	highlights := doc.Highlights()
	color.New(color.FgGreen).Fprintf(rt.stdout, "%s: well formed\n", c.Input)
	fmt.Fprintf(rt.stdout, "anchors: %d\nfootnotes: %d\nhighlights: %d\n", len(ids), len(footnotes), len(highlights))
	return nil
}

// InitCmd saves the configuration in effect (defaults, file, environment and
// flags) so it can be edited.
type InitCmd struct {
	Force bool `help:"Overwrite an existing config file"`
}

func (c *InitCmd) Run(rt *runtime) error {
	if _, err := os.Stat(rt.configPath); err == nil && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", rt.configPath)
	}
	if err := rt.cfg.Save(rt.configPath); err != nil {
		return err
	}
	rt.log.Info("config written", "path", rt.configPath)
	fmt.Fprintf(rt.stdout, "wrote %s\n", rt.configPath)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(rt *runtime) error {
	fmt.Fprintf(rt.stdout, "versemark version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("versemark"),
		kong.Description("USFM rendering and alignment-based quote highlighting"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	rt, cleanup, err := setup(&CLI.Globals)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(rt)
	cleanup()
	ctx.FatalIfErrorf(err)
}
