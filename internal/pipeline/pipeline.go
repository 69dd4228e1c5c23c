// Package pipeline drives the analysis of a source tree: discovery,
// lowering, interpretation and bound analysis, one graph per file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/Sabnock01/pyrometer/internal/bounds"
	"github.com/Sabnock01/pyrometer/internal/crawler"
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/frontend"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/interp"
	"github.com/Sabnock01/pyrometer/internal/nodes"
)

type Pipeline struct {
	Extensions []string
	Workers    int
	Log        *slog.Logger
	// Include, when set, restricts the run to the crawled files it accepts.
	Include func(path string) bool

	base     *slog.Logger
	frontend *frontend.Frontend
}

// FileResult is the analysis of one source file.
type FileResult struct {
	Path      string
	Source    []byte
	Graph     *graph.Graph
	Contracts []graph.NodeIdx
	Functions []FunctionResult
	Failures  []FunctionFailure
}

// FunctionResult is the analysis of one function that completed.
type FunctionResult struct {
	Function  graph.NodeIdx
	Name      string
	Root      ctxgraph.ContextNode
	Bounds    []bounds.ArrayAccessAnalysis
	Unmodeled []interp.Unmodeled
}

// FunctionFailure is a function whose analysis was aborted. Function is
// empty when the whole file failed to parse.
type FunctionFailure struct {
	Function string
	Err      error
}

func New(extensions []string, workers int, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		Extensions: extensions,
		Workers:    workers,
		Log:        log.With(slog.String("component", "pipeline")),
		base:       log,
		frontend:   frontend.New(log),
	}
}

// Run analyzes every matching file under root. Results keep the crawl order.
// Analysis failures are recorded per function; only I/O and cancellation
// errors abort the run.
func (p *Pipeline) Run(ctx context.Context, root string) ([]*FileResult, error) {
	files, err := crawler.NewCrawler(p.Extensions).Files(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if p.Include != nil {
		files = slices.DeleteFunc(files, func(f string) bool { return !p.Include(f) })
	}
	p.Log.Info("scanned", slog.String("root", root), slog.Int("files", len(files)))

	results := make([]*FileResult, len(files))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.Workers)
	for i, path := range files {
		i, path := i, path
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			res, err := p.AnalyzeFile(egCtx, i, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AnalyzeFile lowers and analyzes a single file into a fresh graph. file is
// the index recorded in source locations.
func (p *Pipeline) AnalyzeFile(ctx context.Context, file int, path string) (*FileResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	res := &FileResult{Path: path, Source: src, Graph: graph.NewGraph()}

	unit, err := p.frontend.Lower(ctx, res.Graph, file, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.Log.Warn("file not lowered", slog.String("file", path), slog.Any("err", err))
		res.Failures = append(res.Failures, FunctionFailure{Err: err})
		return res, nil
	}
	res.Contracts = unit.Contracts
	for _, fe := range unit.Failures {
		p.fail(ctx, path, fe.Name, fe.Err)
		res.Failures = append(res.Failures, FunctionFailure{Function: fe.Name, Err: fe.Err})
	}

	a := interp.New(res.Graph, p.base)
	for _, fn := range unit.Functions {
		name := functionName(res.Graph, fn)
		fr, err := analyzeFunction(a, res.Graph, fn)
		if err != nil {
			p.fail(ctx, path, name, err)
			res.Failures = append(res.Failures, FunctionFailure{Function: name, Err: err})
			continue
		}
		fr.Name = name
		res.Functions = append(res.Functions, fr)
	}

	p.Log.Info("analyzed",
		slog.String("file", path),
		slog.Int("functions", len(res.Functions)),
		slog.Int("failures", len(res.Failures)),
		slog.Int("nodes", res.Graph.Len()))
	p.Log.Debug("graph shape",
		slog.String("file", path),
		slog.Any("nodes", res.Graph.NodeKindCounts()),
		slog.Any("edges", res.Graph.EdgeKindCounts()))
	return res, nil
}

// analyzeFunction interprets fn and derives its bounds. A function that
// fails at either step leaves nothing in g.
func analyzeFunction(a *interp.Analyzer, g *graph.Graph, fn graph.NodeIdx) (FunctionResult, error) {
	seen := len(a.Unmodeled())
	sp := g.Savepoint()
	root, err := a.AnalyzeFunction(fn)
	if err != nil {
		g.RollbackTo(sp)
		return FunctionResult{}, err
	}
	found, err := bounds.MinSizeToPreventAccessRevert(g, root)
	if err != nil {
		g.RollbackTo(sp)
		return FunctionResult{}, fmt.Errorf("bound analysis: %w", err)
	}
	g.Release(sp)
	return FunctionResult{
		Function:  fn,
		Root:      root,
		Bounds:    found,
		Unmodeled: a.Unmodeled()[seen:],
	}, nil
}

func (p *Pipeline) fail(ctx context.Context, path, name string, err error) {
	level := slog.LevelWarn
	if errs.IsInternal(err) {
		level = slog.LevelError
	}
	p.Log.Log(ctx, level, "function failed",
		slog.String("file", path), slog.String("function", name), slog.Any("err", err))
}

// FullName qualifies a function with its contract, e.g. "Vault.get".
func FullName(g *graph.Graph, fn graph.NodeIdx) string {
	name := functionName(g, fn)
	contract, ok := nodes.FunctionContract(g, fn)
	if !ok {
		return name
	}
	c, err := graph.NodeAs[nodes.Contract](g, contract)
	if err != nil {
		return name
	}
	return c.Name + "." + name
}

func functionName(g *graph.Graph, fn graph.NodeIdx) string {
	f, err := graph.NodeAs[nodes.Function](g, fn)
	if err != nil {
		return fmt.Sprintf("<%d>", fn)
	}
	return f.Name
}

// Kind names the failure category of err.
func Kind(err error) string {
	for _, k := range []error{errs.ErrShapeViolation, errs.ErrUnsupported, errs.ErrMissingFact, bounds.ErrMaxSizeUnimplemented} {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "error"
}
