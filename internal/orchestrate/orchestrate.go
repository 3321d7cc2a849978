// Package orchestrate drives a build (C8): discover files, extract each in
// parallel, synthesize Lombok accessors, merge into a sealed index, and swap
// it in atomically. Modeled on the teacher's internal/indexer.WorkerPool for
// the worker-pool shape and internal/indexer.IndexerError/ErrorCollector for
// failure handling, generalized to this engine's single merge step instead
// of a multi-stage graph/embedding pipeline.
package orchestrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/google/uuid"

	"github.com/kjxref/kjxref/internal/errs"
	"github.com/kjxref/kjxref/internal/extractor"
	"github.com/kjxref/kjxref/internal/index"
	"github.com/kjxref/kjxref/internal/logging"
	"github.com/kjxref/kjxref/internal/lombok"
	"github.com/kjxref/kjxref/internal/model"
	"github.com/kjxref/kjxref/internal/parser"
)

var defaultSkipDirs = map[string]bool{
	"build": true, "target": true, "out": true, ".gradle": true, ".idea": true,
	".git": true, "node_modules": true,
}

// Options configures a build.
type Options struct {
	Root        string
	WorkerCount int
	UseGit      bool // prefer git-tracked file discovery when Root is a worktree
	Logger      *logging.Logger
}

// BuildReport summarizes one completed build (§9A).
type BuildReport struct {
	SnapshotID   uuid.UUID
	FilesWalked  int
	FilesIndexed int
	Duration     time.Duration
	Errors       []error
	Warnings     []index.Warning
}

// Engine owns the current sealed index and knows how to rebuild it.
type Engine struct {
	opts Options

	mu  sync.RWMutex
	idx *index.Index
}

func New(opts Options) *Engine {
	if opts.WorkerCount < 1 {
		opts.WorkerCount = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewSilent()
	}
	return &Engine{opts: opts}
}

// Index returns the currently sealed snapshot, or nil before the first build.
func (e *Engine) Index() *index.Index {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx
}

// Reindex walks the project, extracts every Kotlin/Java file, synthesizes
// Lombok accessors, merges everything through a single-writer builder, and
// atomically swaps in the new snapshot (§5 "coarse-grained parallelism
// during build, single-writer after").
func (e *Engine) Reindex(ctx context.Context) (*BuildReport, error) {
	start := time.Now()
	paths, err := e.discoverFiles()
	if err != nil {
		return nil, err
	}

	type fileResult struct {
		ff  *model.FileFacts
		err error
	}

	jobs := make(chan string, len(paths))
	results := make(chan fileResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < e.opts.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			driver := parser.NewDriver()
			for path := range jobs {
				select {
				case <-ctx.Done():
					results <- fileResult{err: errs.NewIOError(path, "build cancelled", ctx.Err())}
					continue
				default:
				}
				ff, err := extractFile(driver, path)
				results <- fileResult{ff: ff, err: err}
			}
		}()
	}
	for _, p := range paths {
		jobs <- p
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	collector := errs.NewCollector()
	builder := index.NewBuilder()
	filesIndexed := 0
	for r := range results {
		if r.err != nil {
			collector.Add(r.err)
		}
		// A parse error still carries a best-effort ff (§4.1/§7: the build
		// isn't aborted, the file is indexed for what could be recovered).
		// Only a read failure or an unrecognized extension leaves ff nil.
		if r.ff == nil {
			continue
		}
		if r.ff.Language == model.Java {
			lombok.Synthesize(r.ff)
		}
		builder.Add(r.ff)
		filesIndexed++
	}

	id := uuid.New()
	sealed := builder.Build(id)

	e.mu.Lock()
	e.idx = sealed
	e.mu.Unlock()

	report := &BuildReport{
		SnapshotID:   id,
		FilesWalked:  len(paths),
		FilesIndexed: filesIndexed,
		Duration:     time.Since(start),
		Errors:       collector.Errors(),
		Warnings:     builder.Warnings,
	}
	e.opts.Logger.InfoFields("reindex complete",
		logging.Field{Key: "snapshot", Value: id.String()},
		logging.Field{Key: "files_indexed", Value: filesIndexed},
		logging.Field{Key: "errors", Value: len(report.Errors)},
		logging.Field{Key: "duration", Value: report.Duration},
	)
	return report, nil
}

// extractFile parses and extracts a single file, wrapping parse/read
// failures in the engine's typed error taxonomy. A read failure or an
// unrecognized extension yields no facts at all, but a parse error from the
// extractor itself still carries whatever ff it managed to recover — per
// §4.1/§7, a syntax error does not abort the build, it still gets indexed
// for what could be recovered, so the caller must not discard ff here.
func extractFile(driver *parser.Driver, path string) (*model.FileFacts, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewIOError(path, "read failed", err)
	}
	lang, ok := parser.LanguageForPath(path)
	if !ok {
		return nil, errs.NewParseError(path, "unrecognized extension", nil)
	}

	var ex extractor.Extractor
	switch lang {
	case model.Kotlin:
		ex = extractor.NewKotlinExtractor(driver)
	case model.Java:
		ex = extractor.NewJavaExtractor(driver)
	}
	ff, err := ex.Extract(path, content)
	if err != nil {
		return ff, errs.NewParseError(path, "extraction failed", err)
	}
	return ff, nil
}

// discoverFiles lists every Kotlin/Java source file under the project root.
// When UseGit is set and the root is a git worktree, discovery lists the
// files of the HEAD commit's tree (uncommitted files are not included);
// otherwise it falls back to a plain filepath.WalkDir with a skip-list, the
// way the teacher's scanner does for non-repo roots.
func (e *Engine) discoverFiles() ([]string, error) {
	if e.opts.UseGit {
		if paths, err := e.discoverFilesGit(); err == nil {
			return paths, nil
		}
	}
	return e.discoverFilesWalk()
}

func (e *Engine) discoverFilesGit() ([]string, error) {
	repo, err := git.PlainOpenWithOptions(e.opts.Root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	commitTree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	var paths []string
	root := wt.Filesystem.Root()
	iter := commitTree.Files()
	for {
		f, err := iter.Next()
		if err != nil {
			break
		}
		if _, ok := parser.LanguageForPath(f.Name); !ok {
			continue
		}
		full := filepath.Join(root, f.Name)
		if isSkippedPath(full) {
			continue
		}
		paths = append(paths, full)
	}
	return paths, nil
}

func (e *Engine) discoverFilesWalk() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(e.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if defaultSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := parser.LanguageForPath(path); !ok {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths, err
}

func isSkippedPath(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if defaultSkipDirs[seg] {
			return true
		}
	}
	return false
}
