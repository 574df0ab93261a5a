// Package treesync ties the walker, the description store and the document
// patcher into a single synchronization run.
package treesync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/caffetsong/md-tree-updater/internal/config"
	"github.com/caffetsong/md-tree-updater/internal/descriptions"
	"github.com/caffetsong/md-tree-updater/internal/document"
	"github.com/caffetsong/md-tree-updater/internal/filelock"
	"github.com/caffetsong/md-tree-updater/internal/filesystem"
	"github.com/caffetsong/md-tree-updater/internal/pathfilter"
	"github.com/caffetsong/md-tree-updater/internal/render"
	"github.com/caffetsong/md-tree-updater/internal/types"
)

var (
	// ErrTargetMissing is returned when the target document does not exist.
	ErrTargetMissing = errors.New("target file does not exist")
	// ErrUnknownPath is returned by Describe for paths that are not in the tree.
	ErrUnknownPath = errors.New("path is not in the tree")
)

// Logger receives progress output.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Successf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)   {}
func (nopLogger) Infof(string, ...any)    {}
func (nopLogger) Warnf(string, ...any)    {}
func (nopLogger) Successf(string, ...any) {}

// Options controls a Run.
type Options struct {
	DryRun bool // compute and report, write nothing
}

// Service runs synchronizations for one configuration. It is safe for
// concurrent use; Run and Describe are serialized.
type Service struct {
	cfg   *config.Config
	store *descriptions.Store
	log   Logger

	// mu guards every load, modify and save sequence on the two files.
	mu sync.Mutex
}

// New creates a Service. cfg should already be resolved to absolute paths.
// A nil logger discards output.
func New(cfg *config.Config, log Logger) *Service {
	if log == nil {
		log = nopLogger{}
	}
	return &Service{
		cfg:   cfg,
		store: descriptions.NewStore(cfg.DescriptionsFile),
		log:   log,
	}
}

// snapshot is one consistent view of the rules, the walked tree and the
// description file.
type snapshot struct {
	fs             *filesystem.Service
	root           *types.Node
	live           []string
	doc            descriptions.Document
	reconciliation descriptions.Reconciliation
}

func (s *snapshot) tree() string {
	return render.Tree(s.root, render.Options{
		Root:         s.fs.Root(),
		Descriptions: s.reconciliation.Mapping,
		Rules:        s.fs.Rules(),
	})
}

// Run brings the description file and the target document in line with the
// filesystem. When the target lacks markers they are appended and nothing is
// rendered; the result then has RerunRequired set.
func (s *Service) Run(ctx context.Context, opts Options) (*types.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.cfg.TargetFile
	markers := s.cfg.Markers()

	content, err := s.readTarget()
	if err != nil {
		return nil, err
	}

	if !markers.Has(content) {
		if errors.Is(markers.Check(content), document.ErrUnclosedMarker) {
			return nil, fmt.Errorf("%s: %w", target, document.ErrUnclosedMarker)
		}
		s.log.Infof("Tags not found in %s. Appending them now.", target)
		if !opts.DryRun {
			if err := filelock.LockAndWrite(target, []byte(document.AppendMarkers(content, markers))); err != nil {
				return nil, fmt.Errorf("failed to append markers to %s: %w", target, err)
			}
		}
		s.log.Successf("Tags appended. Please run the command again to generate the tree.")
		return &types.SyncResult{RerunRequired: true}, nil
	}

	s.log.Infof("Config and tags found. Starting tree generation...")

	// Create the description file before walking so it is part of the tree
	// it describes; otherwise the next run would find it as a new path.
	if !opts.DryRun {
		if err := s.ensureDescriptionFile(); err != nil {
			return nil, err
		}
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rec := snap.reconciliation

	result := &types.SyncResult{
		Added:    rec.Added,
		Archived: rec.Removed,
	}

	if rec.Changed() {
		if len(rec.Added) > 0 {
			s.log.Infof("Found %d new paths. Adding them to %s", len(rec.Added), filepath.Base(s.store.Path()))
		}
		if len(rec.Removed) > 0 {
			s.log.Infof("Found %d deleted paths. Archiving them in %s", len(rec.Removed), filepath.Base(s.store.Path()))
		}
		if !opts.DryRun {
			if err := s.store.Save(snap.doc.Apply(rec)); err != nil {
				return nil, err
			}
		}
		s.log.Successf("Descriptions file synchronized successfully.")
	} else {
		s.log.Debugf("Descriptions file is already up to date")
	}

	tree := snap.tree()
	result.Tree = tree

	patched, err := document.Patch(content, markers, tree)
	if err != nil {
		return nil, fmt.Errorf("failed to patch %s: %w", target, err)
	}
	s.warnMarkersInCode(content, markers)

	if patched == content {
		s.log.Successf("Tree in %s is already up to date.", target)
		return result, nil
	}

	result.Updated = true
	if opts.DryRun {
		s.log.Infof("Dry run: %s would be updated.", target)
		return result, nil
	}
	if err := filelock.LockAndWrite(target, []byte(patched)); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", target, err)
	}
	s.log.Successf("Successfully updated tree in %s.", target)

	return result, nil
}

// Render returns the tree block as Run would write it, without touching any
// file.
func (s *Service) Render(ctx context.Context) (string, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return snap.tree(), nil
}

// Check reports what Run would change.
func (s *Service) Check(ctx context.Context) (*types.CheckResult, error) {
	content, err := s.readTarget()
	if err != nil {
		return nil, err
	}

	markers := s.cfg.Markers()
	if !markers.Has(content) {
		if errors.Is(markers.Check(content), document.ErrUnclosedMarker) {
			return nil, fmt.Errorf("%s: %w", s.cfg.TargetFile, document.ErrUnclosedMarker)
		}
		return &types.CheckResult{MissingMarkers: true}, nil
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	patched, err := document.Patch(content, markers, snap.tree())
	if err != nil {
		return nil, fmt.Errorf("failed to patch %s: %w", s.cfg.TargetFile, err)
	}

	return &types.CheckResult{
		TreeStale: patched != content,
		Added:     snap.reconciliation.Added,
		Archived:  snap.reconciliation.Removed,
	}, nil
}

// Describe sets the description of a path that is currently in the tree and
// saves the description file. It returns the canonical key that was set.
// Pending additions and removals are applied in the same write.
func (s *Service) Describe(ctx context.Context, params types.DescribeParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	if _, err := snap.fs.ResolvePath(params.Path); err != nil {
		return "", err
	}

	key, ok := lookupKey(params.Path, snap.live)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPath, params.Path)
	}

	doc := snap.doc.Apply(snap.reconciliation)
	doc.Mapping[key] = strings.TrimSpace(params.Description)
	if err := s.store.Save(doc); err != nil {
		return "", err
	}
	s.log.Successf("Description of %s updated.", key)

	return key, nil
}

// Descriptions returns the current description mapping as stored on disk.
func (s *Service) Descriptions() (descriptions.Mapping, error) {
	doc, err := s.store.Load()
	if errors.Is(err, descriptions.ErrUnparsable) {
		s.log.Warnf("%v", err)
		err = nil
	}
	return doc.Mapping, err
}

// lookupKey normalizes a user supplied path to a live description key.
// Directories may be given with or without their trailing slash.
func lookupKey(path string, live []string) (string, bool) {
	key := strings.TrimSpace(strings.ReplaceAll(path, "\\", "/"))
	switch key {
	case "", ".", filesystem.RootKey:
		key = filesystem.RootKey
	default:
		key = strings.TrimPrefix(key, "./")
		key = strings.TrimPrefix(key, "/")
	}

	candidates := []string{key}
	if !strings.HasSuffix(key, "/") {
		candidates = append(candidates, key+"/")
	}
	for _, c := range candidates {
		for _, p := range live {
			if p == c {
				return c, true
			}
		}
	}
	return "", false
}

func (s *Service) readTarget() (string, error) {
	data, err := os.ReadFile(s.cfg.TargetFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q, please create it or check your config", ErrTargetMissing, s.cfg.TargetFile)
		}
		return "", fmt.Errorf("failed to read target file %s: %w", s.cfg.TargetFile, err)
	}
	return string(data), nil
}

func (s *Service) ensureDescriptionFile() error {
	_, err := os.Stat(s.store.Path())
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	s.log.Debugf("Creating %s", s.store.Path())
	return s.store.Save(descriptions.Document{Mapping: descriptions.Mapping{}})
}

// load reads the ignore rules and the description file concurrently, then
// walks the root and reconciles.
func (s *Service) load(ctx context.Context) (*snapshot, error) {
	var (
		rules *pathfilter.Rules
		doc   descriptions.Document
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rules = s.loadRules()
		return gctx.Err()
	})
	g.Go(func() error {
		d, err := s.store.Load()
		if errors.Is(err, descriptions.ErrUnparsable) {
			s.log.Warnf("Could not parse %s, starting with empty descriptions: %v", s.store.Path(), err)
			err = nil
		}
		doc = d
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fsSvc := filesystem.New(s.cfg.Root, rules)
	root, err := fsSvc.Walk()
	if err != nil {
		return nil, err
	}
	live := fsSvc.LivePaths(root)
	s.log.Debugf("Walked %s: %d live paths", fsSvc.Root(), len(live))

	return &snapshot{
		fs:             fsSvc,
		root:           root,
		live:           live,
		doc:            doc,
		reconciliation: descriptions.Reconcile(doc.Mapping, live),
	}, nil
}

// loadRules never fails: unreadable rule files are reported and skipped.
func (s *Service) loadRules() *pathfilter.Rules {
	rules, err := pathfilter.Load(s.cfg.IgnoreFile)
	if err != nil {
		s.log.Warnf("%v", err)
	} else if rules.Source == "" {
		s.log.Debugf("No ignore file at %s", s.cfg.IgnoreFile)
	}

	if s.cfg.UseGitignore {
		gi := filepath.Join(s.cfg.Root, ".gitignore")
		if _, statErr := os.Stat(gi); statErr != nil {
			s.log.Debugf("No .gitignore at %s", gi)
		} else if err := rules.UseGitignore(gi); err != nil {
			s.log.Warnf("%v", err)
		}
	}

	deep, shallow := rules.Counts()
	s.log.Debugf("Loaded %d deep and %d shallow ignore rules", deep, shallow)
	return rules
}

func (s *Service) warnMarkersInCode(content string, m document.Markers) {
	for _, marker := range document.MarkersInCode([]byte(content), m) {
		s.log.Warnf("%s appears inside a code block in %s; the tree is placed there anyway", marker, s.cfg.TargetFile)
	}
}
