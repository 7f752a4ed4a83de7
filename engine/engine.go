// Package engine orchestrates the import/export/layout pipeline:
// packaging parts in, translated document trees out, and back again.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/docmill/docmill/measure"
	"github.com/docmill/docmill/media"
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
	"github.com/docmill/docmill/xmltree"
)

// ImportArtifacts carries the per-document side tables an import pass
// produced, needed again at export and layout time.
type ImportArtifacts struct {
	Numbering *numbering.Tables
	Styles    *styles.Resolver
	Comments  map[string]translate.Comment
	// Rels is the relationship cache of the import pass; export builds
	// a fresh one.
	Rels *relationships.Cache
	// Media deduplicates image parts added to the document.
	Media *media.Registry
	// Package retains the source container so unknown parts survive.
	Package *packaging.Package
}

// AttachImage registers image bytes as a package part and returns an
// image node referencing it, sized to the decoded pixel dimensions.
// Identical bytes attach to one shared part.
func (a *ImportArtifacts) AttachImage(hint string, data []byte) (*model.Node, error) {
	if a.Media == nil {
		a.Media = media.NewRegistry()
	}
	img, err := a.Media.Add(hint, data)
	if err != nil {
		return nil, err
	}
	partName := "word/" + img.PartName
	if a.Package != nil {
		a.Package.SetRaw(partName, img.Data)
		if ext := strings.TrimPrefix(filepath.Ext(partName), "."); ext != "" {
			a.Package.EnsureContentType(ext, "image/"+ext)
		}
	}
	rID := a.Rels.GetOrCreate(img.PartName, relationships.TypeImage)
	attrs := model.Attrs{"rId": rID, "src": img.PartName}
	if img.Width > 0 {
		attrs["width"] = img.Width
		attrs["height"] = img.Height
	}
	return model.NewNode(model.ImageType, attrs), nil
}

// ExportConfig selects how revisions and comments leave the document.
type ExportConfig struct {
	Comments     translate.CommentsExportType
	TrackChanges translate.TrackChangesMode
}

// Pipeline is the configured engine. Construct with New; a Pipeline is
// safe for sequential reuse across documents.
type Pipeline struct {
	registry *translate.Registry
	strategy recovery.Strategy
	verifier *validator.Super
	logger   observability.Logger
	tracer   observability.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecovery sets the failure strategy, default strict.
func WithRecovery(s recovery.Strategy) Option {
	return func(p *Pipeline) { p.strategy = s }
}

// WithValidator sets the document validator.
func WithValidator(v *validator.Super) Option {
	return func(p *Pipeline) { p.verifier = v }
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithTracer sets the tracer.
func WithTracer(t observability.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// New builds a pipeline over the standard registry.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: translate.NewDocRegistry(),
		strategy: recovery.NewStrictStrategy(),
		logger:   observability.NopLogger{},
		tracer:   observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Import translates a package into a document tree. Translator panics
// surface here and go through the recovery strategy: strict aborts the
// pass, lenient skips the document body element that failed.
func (p *Pipeline) Import(ctx context.Context, pkg *packaging.Package) (doc *model.Node, arts *ImportArtifacts, err error) {
	ctx, span := p.tracer.StartSpan(ctx, "docx.import")
	defer span.Finish()

	root := pkg.Part("word/document.xml")
	if root == nil {
		return nil, nil, fmt.Errorf("package has no word/document.xml")
	}
	arts = &ImportArtifacts{
		Numbering: numbering.Parse(pkg.Part("word/numbering.xml")),
		Styles:    styles.Parse(pkg.Part("word/styles.xml")),
		Comments:  translate.ParseCommentsPart(pkg.Part("word/comments.xml")),
		Rels:      relationships.NewCache(pkg.Part("word/_rels/document.xml.rels")),
		Media:     media.NewRegistry(),
		Package:   pkg,
	}
	ectx := &translate.EncodeContext{
		Numbering: arts.Numbering,
		Styles:    arts.Styles,
		Rels:      arts.Rels,
		Comments:  arts.Comments,
		Logger:    p.logger,
	}

	defer func() {
		if r := recover(); r != nil {
			rerr := fmt.Errorf("import: %v", r)
			loc := recovery.Location{Part: "word/document.xml", Component: "translate"}
			if p.strategy.OnError(rerr, loc) == recovery.ActionFail {
				span.SetError(rerr)
				doc, arts, err = nil, nil, rerr
				return
			}
			p.logger.Warn("import recovered, document truncated",
				observability.Error("panic", rerr))
			doc = model.NewNode(model.DocType, nil, model.NewNode(model.ParagraphType, nil))
		}
	}()

	doc, err = translate.EncodeDocument(p.registry, root, ectx)
	if err != nil {
		span.SetError(err)
		return nil, nil, err
	}
	if err := p.registry.Schema().Validate(doc); err != nil {
		span.SetError(err)
		return nil, nil, fmt.Errorf("imported document: %w", err)
	}
	if p.verifier != nil {
		report, corrected := p.verifier.ValidateDocument(doc, false)
		if report.Modified {
			doc = corrected
		}
		for _, res := range report.Results {
			for _, msg := range res.Results {
				p.logger.Info("validator", observability.String("key", res.Key), observability.String("finding", msg))
			}
		}
	}
	return doc, arts, nil
}

// Export translates a document tree back into a package. The source
// package's unknown parts carry over untouched; a fresh relationship
// cache is built for the pass so ids never collide with stale state.
func (p *Pipeline) Export(ctx context.Context, doc *model.Node, arts *ImportArtifacts, cfg ExportConfig) (out *packaging.Package, err error) {
	ctx, span := p.tracer.StartSpan(ctx, "docx.export")
	defer span.Finish()

	if cfg.Comments == "" {
		cfg.Comments = translate.CommentsAll
	}
	if cfg.TrackChanges == "" {
		cfg.TrackChanges = translate.TrackChangesKeep
	}
	pkg := arts.Package
	if pkg == nil {
		pkg = packaging.New()
	}

	var relsPart *relationships.Cache
	if arts.Rels != nil {
		relsPart = relationships.NewCache(arts.Rels.Part().Clone())
	} else {
		relsPart = relationships.NewCache(nil)
	}
	dctx := &translate.DecodeContext{
		Comments:           arts.Comments,
		CommentsExportType: cfg.Comments,
		TrackChanges:       cfg.TrackChanges,
		Rels:               relsPart,
		Logger:             p.logger,
	}

	defer func() {
		if r := recover(); r != nil {
			rerr := fmt.Errorf("export: %v", r)
			loc := recovery.Location{Part: "word/document.xml", Component: "translate"}
			if p.strategy.OnError(rerr, loc) == recovery.ActionFail {
				span.SetError(rerr)
				out, err = nil, rerr
				return
			}
			p.logger.Warn("export recovered", observability.Error("panic", rerr))
		}
	}()

	root := translate.DecodeDocument(p.registry, doc, dctx)
	pkg.SetPart("word/document.xml", root)
	pkg.SetPart("word/_rels/document.xml.rels", relsPart.Part())
	ensureDocID(pkg)
	p.filterComments(pkg, dctx)

	if p.verifier != nil {
		report := p.verifier.ValidateExport(pkg.Parts)
		for _, res := range report.Results {
			for _, msg := range res.Results {
				p.logger.Warn("export validator", observability.String("key", res.Key), observability.String("finding", msg))
			}
		}
	}
	return pkg, nil
}

// ensureDocID stamps the settings part with a document GUID. Word
// issues one on first save; documents we author need one too.
func ensureDocID(pkg *packaging.Package) {
	part := pkg.Part("word/settings.xml")
	if part == nil {
		part = xmltree.NewElement("w:settings")
		pkg.SetPart("word/settings.xml", part)
	}
	if part.Child("w15:docId") != nil {
		return
	}
	id := xmltree.NewElement("w15:docId")
	id.SetAttr("w15:val", "{"+strings.ToUpper(uuid.NewString())+"}")
	part.AppendChild(id)
}

// filterComments trims the comments part down to the threads whose
// anchors were actually exported.
func (p *Pipeline) filterComments(pkg *packaging.Package, dctx *translate.DecodeContext) {
	part := pkg.Part("word/comments.xml")
	if part == nil {
		return
	}
	if dctx.CommentsExportType == translate.CommentsAll {
		return
	}
	filtered := part.Clone()
	var kept int
	var elements = filtered.Elements[:0]
	for _, c := range filtered.Elements {
		if c.Name != "w:comment" {
			elements = append(elements, c)
			continue
		}
		id, _ := c.Attr("w:id")
		if dctx.ExportedCommentDefs[id] {
			elements = append(elements, c)
			kept++
		}
	}
	filtered.Elements = elements
	if kept == 0 && dctx.CommentsExportType == translate.CommentsClean {
		pkg.Remove("word/comments.xml")
		return
	}
	pkg.SetPart("word/comments.xml", filtered)
}

// Paginate measures and flows the document into pages.
func (p *Pipeline) Paginate(ctx context.Context, doc *model.Node, defaults paginate.Geometry, m measure.Measurer, arts *ImportArtifacts) ([]paginate.Page, error) {
	ctx, span := p.tracer.StartSpan(ctx, "docx.layout")
	defer span.Finish()

	if m == nil {
		return nil, fmt.Errorf("paginate: nil measurer")
	}
	blocks := p.measureBlocks(doc, defaults, m, arts)
	eng := paginate.NewEngine(defaults, p.logger)
	pages := eng.Layout(blocks)
	span.SetTag("pages", len(pages))
	return pages, nil
}
