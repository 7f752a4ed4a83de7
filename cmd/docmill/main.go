// Command docmill inspects, converts and paginates docx documents.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/docmill/docmill/convert"
	"github.com/docmill/docmill/engine"
	"github.com/docmill/docmill/measure"
	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/numbering"
	"github.com/docmill/docmill/observability"
	"github.com/docmill/docmill/packaging"
	"github.com/docmill/docmill/paginate"
	"github.com/docmill/docmill/recovery"
	"github.com/docmill/docmill/relationships"
	"github.com/docmill/docmill/styles"
	"github.com/docmill/docmill/translate"
	"github.com/docmill/docmill/validator"
)

type cli struct {
	Verbose bool `short:"v" help:"Log engine activity to stderr."`
	Lenient bool `help:"Skip failing elements instead of aborting."`

	Inspect   inspectCmd   `cmd:"" help:"Summarize a docx document's structure."`
	Roundtrip roundtripCmd `cmd:"" help:"Import a docx and export it again."`
	Paginate  paginateCmd  `cmd:"" help:"Lay a docx out into pages and print the fragment boxes."`
	Convert   convertCmd   `cmd:"" help:"Convert between docx, Markdown and HTML by file extension."`
}

func main() {
	var c cli
	k := kong.Parse(&c,
		kong.Name("docmill"),
		kong.Description("docx translation and layout toolkit"),
		kong.UsageOnError(),
	)
	err := k.Run(newApp(&c))
	k.FatalIfErrorf(err)
}

type app struct {
	pipeline *engine.Pipeline
	logger   observability.Logger
}

func newApp(c *cli) *app {
	var logger observability.Logger = observability.NopLogger{}
	if c.Verbose {
		logger = stderrLogger{}
	}
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithValidator(validator.New(
			validator.WithStateValidators(validator.CommentPairing{}),
			validator.WithXMLValidators(validator.RelationshipTargets{}),
			validator.WithLogger(logger),
		)),
	}
	if c.Lenient {
		opts = append(opts, engine.WithRecovery(recovery.NewLenientStrategy(logger)))
	}
	return &app{pipeline: engine.New(opts...), logger: logger}
}

func (a *app) importFile(path string) (*model.Node, *engine.ImportArtifacts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	pkg, err := packaging.Read(data)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return a.pipeline.Import(context.Background(), pkg)
}

type inspectCmd struct {
	Path string `arg:"" type:"existingfile" help:"Input docx."`
}

type inspectReport struct {
	Blocks     map[string]int `json:"blocks"`
	Characters int            `json:"characters"`
	Comments   int            `json:"comments"`
	Parts      []string       `json:"parts"`
}

func (cmd *inspectCmd) Run(a *app) error {
	doc, arts, err := a.importFile(cmd.Path)
	if err != nil {
		return err
	}
	report := inspectReport{Blocks: map[string]int{}}
	for _, b := range doc.Content {
		report.Blocks[b.Type]++
	}
	report.Characters = len([]rune(doc.TextContent()))
	report.Comments = len(arts.Comments)
	for name := range arts.Package.Parts {
		report.Parts = append(report.Parts, name)
	}
	for name := range arts.Package.Raw {
		report.Parts = append(report.Parts, name)
	}
	return emitJSON(report)
}

type roundtripCmd struct {
	Path    string `arg:"" type:"existingfile" help:"Input docx."`
	Out     string `short:"o" help:"Output path, defaults to <input>.out.docx."`
	Comment string `name:"comments" default:"all" enum:"all,external,clean" help:"Comment export mode."`
	Track   string `name:"track-changes" default:"keep" enum:"keep,accept,reject" help:"Tracked change export mode."`
}

func (cmd *roundtripCmd) Run(a *app) error {
	doc, arts, err := a.importFile(cmd.Path)
	if err != nil {
		return err
	}
	pkg, err := a.pipeline.Export(context.Background(), doc, arts, engine.ExportConfig{
		Comments:     translateComments(cmd.Comment),
		TrackChanges: translateTrack(cmd.Track),
	})
	if err != nil {
		return err
	}
	data, err := pkg.Write()
	if err != nil {
		return err
	}
	out := cmd.Out
	if out == "" {
		out = strings.TrimSuffix(cmd.Path, filepath.Ext(cmd.Path)) + ".out.docx"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Println(out)
	return nil
}

type paginateCmd struct {
	Path   string  `arg:"" type:"existingfile" help:"Input docx."`
	Font   string  `type:"existingfile" help:"TTF font backing text measurement."`
	Width  float64 `default:"816" help:"Default page width in px."`
	Height float64 `default:"1056" help:"Default page height in px."`
	Margin float64 `default:"96" help:"Default page margin in px."`
}

type pageReport struct {
	Number    int                 `json:"number"`
	Width     float64             `json:"width"`
	Height    float64             `json:"height"`
	Blank     bool                `json:"blank,omitempty"`
	Fragments []paginate.Fragment `json:"fragments,omitempty"`
}

func (cmd *paginateCmd) Run(a *app) error {
	doc, arts, err := a.importFile(cmd.Path)
	if err != nil {
		return err
	}
	var m measure.Measurer = measure.FixedMetrics{GlyphWidth: 8, Interval: 48}
	if cmd.Font != "" {
		data, err := os.ReadFile(cmd.Font)
		if err != nil {
			return fmt.Errorf("read font: %w", err)
		}
		fm, err := measure.NewFontMeasurer(data)
		if err != nil {
			return fmt.Errorf("parse font: %w", err)
		}
		m = fm
	}
	geo := paginate.Geometry{
		PageWidth:  cmd.Width,
		PageHeight: cmd.Height,
		Margins:    paginate.Margins{Top: cmd.Margin, Right: cmd.Margin, Bottom: cmd.Margin, Left: cmd.Margin},
		Columns:    paginate.Columns{Count: 1},
	}
	pages, err := a.pipeline.Paginate(context.Background(), doc, geo, m, arts)
	if err != nil {
		return err
	}
	report := make([]pageReport, 0, len(pages))
	for _, p := range pages {
		report = append(report, pageReport{
			Number: p.Number, Width: p.Width, Height: p.Height,
			Blank: p.Blank, Fragments: p.Fragments,
		})
	}
	return emitJSON(report)
}

type convertCmd struct {
	In  string `arg:"" type:"existingfile" help:"Input file (.docx, .md, .html)."`
	Out string `arg:"" help:"Output file (.docx, .md, .html)."`
}

func (cmd *convertCmd) Run(a *app) error {
	doc, arts, err := cmd.load(a)
	if err != nil {
		return err
	}
	switch ext(cmd.Out) {
	case "md", "markdown":
		return os.WriteFile(cmd.Out, []byte(convert.ToMarkdown(doc)), 0o644)
	case "html", "htm":
		return os.WriteFile(cmd.Out, []byte(convert.ToHTML(doc)), 0o644)
	case "docx":
		pkg, err := a.pipeline.Export(context.Background(), doc, arts, engine.ExportConfig{})
		if err != nil {
			return err
		}
		data, err := pkg.Write()
		if err != nil {
			return err
		}
		return os.WriteFile(cmd.Out, data, 0o644)
	default:
		return fmt.Errorf("unsupported output format %q", ext(cmd.Out))
	}
}

func (cmd *convertCmd) load(a *app) (*model.Node, *engine.ImportArtifacts, error) {
	switch ext(cmd.In) {
	case "docx":
		return a.importFile(cmd.In)
	case "md", "markdown":
		data, err := os.ReadFile(cmd.In)
		if err != nil {
			return nil, nil, err
		}
		doc, err := convert.FromMarkdown(string(data))
		return doc, freshArtifacts(), err
	case "html", "htm":
		data, err := os.ReadFile(cmd.In)
		if err != nil {
			return nil, nil, err
		}
		doc, err := convert.FromHTML(string(data))
		return doc, freshArtifacts(), err
	default:
		return nil, nil, fmt.Errorf("unsupported input format %q", ext(cmd.In))
	}
}

// freshArtifacts backs an export that did not start from a docx.
func freshArtifacts() *engine.ImportArtifacts {
	pkg := packaging.New()
	pkg.EnsureContentType("xml", "application/xml")
	pkg.EnsureContentType("rels", "application/vnd.openxmlformats-package.relationships+xml")
	return &engine.ImportArtifacts{
		Numbering: numbering.Empty(),
		Styles:    styles.Empty(),
		Rels:      relationships.NewCache(nil),
		Package:   pkg,
	}
}

func translateComments(mode string) translate.CommentsExportType {
	return translate.CommentsExportType(mode)
}

func translateTrack(mode string) translate.TrackChangesMode {
	return translate.TrackChangesMode(mode)
}

func ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func emitJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// stderrLogger prints engine activity without pulling in a logging
// framework; hosts embedding the library wire their own backend.
type stderrLogger struct {
	fields []observability.Field
}

func (l stderrLogger) log(level, msg string, fields []observability.Field) {
	fmt.Fprintf(os.Stderr, "%s %s", level, msg)
	for _, f := range append(l.fields, fields...) {
		fmt.Fprintf(os.Stderr, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(os.Stderr)
}

func (l stderrLogger) Debug(msg string, fields ...observability.Field) { l.log("DEBUG", msg, fields) }
func (l stderrLogger) Info(msg string, fields ...observability.Field)  { l.log("INFO", msg, fields) }
func (l stderrLogger) Warn(msg string, fields ...observability.Field)  { l.log("WARN", msg, fields) }
func (l stderrLogger) Error(msg string, fields ...observability.Field) { l.log("ERROR", msg, fields) }
func (l stderrLogger) With(fields ...observability.Field) observability.Logger {
	return stderrLogger{fields: append(l.fields, fields...)}
}
