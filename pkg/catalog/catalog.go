package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/platinummonkey/auval/pkg/native"
	"github.com/platinummonkey/auval/pkg/observability"
	"github.com/platinummonkey/auval/pkg/simulator"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheSize is the number of parsed manifests kept in memory
const DefaultCacheSize = 64

// discoverWorkers bounds how many directories are scanned at once
const discoverWorkers = 4

// ErrNotFound is returned for identities no manifest declares
var ErrNotFound = errors.New("component not found")

// DefaultDirs returns the manifest directories searched when none are
// configured, most specific first
func DefaultDirs() []string {
	dirs := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".auval", "components"))
	}
	return append(dirs, "/etc/auval/components", "components")
}

type entry struct {
	desc native.Description
	path string
}

// Catalog discovers simulated components from YAML manifests and implements
// native.Catalog over them
type Catalog struct {
	dirs     []string
	log      *logrus.Logger
	recorder observability.Recorder

	mu    sync.RWMutex
	index map[native.Identity]entry
	cache *lru.Cache[native.Identity, *simulator.Spec]
}

// Option configures a Catalog
type Option func(*Catalog)

// WithRecorder records manifest cache hits and misses
func WithRecorder(r observability.Recorder) Option {
	return func(c *Catalog) { c.recorder = r }
}

// New creates a catalog over dirs. Call Discover before use.
func New(dirs []string, log *logrus.Logger, opts ...Option) (*Catalog, error) {
	if log == nil {
		log = logrus.New()
	}
	cache, err := lru.New[native.Identity, *simulator.Spec](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest cache: %w", err)
	}

	c := &Catalog{
		dirs:     dirs,
		log:      log,
		recorder: observability.NopRecorder{},
		index:    map[native.Identity]entry{},
		cache:    cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func isManifest(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Discover scans the manifest directories and rebuilds the index. Bad
// manifests are logged and skipped; when two manifests declare the same
// identity the one found first wins. It returns the number of components.
func (c *Catalog) Discover(ctx context.Context) (int, error) {
	found := make([][]entry, len(c.dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(discoverWorkers)
	for i, dir := range c.dirs {
		g.Go(func() error {
			entries, err := c.scanDir(gctx, dir)
			if err != nil {
				return err
			}
			found[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	index := map[native.Identity]entry{}
	for _, entries := range found {
		for _, e := range entries {
			id := e.desc.Identity
			if prev, dup := index[id]; dup {
				c.log.WithFields(logrus.Fields{"component": id.String(), "kept": prev.path}).Warnf("Ignoring duplicate manifest %s", e.path)
				continue
			}
			index[id] = e
		}
	}

	c.mu.Lock()
	c.index = index
	c.cache.Purge()
	c.mu.Unlock()

	c.log.Infof("Discovered %d components in %d directories", len(index), len(c.dirs))
	return len(index), nil
}

// scanDir returns the valid manifests of dir in directory order
func (c *Catalog) scanDir(ctx context.Context, dir string) ([]entry, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		c.log.Debugf("Component directory does not exist: %s", dir)
		return nil, nil
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		c.log.Warnf("Failed to read component directory %s: %v", dir, err)
		return nil, nil
	}

	var entries []entry
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.IsDir() || !isManifest(f.Name()) {
			continue
		}

		path := filepath.Join(dir, f.Name())
		m, err := LoadManifest(path)
		if err != nil {
			c.log.Warnf("Failed to load manifest %s: %v", path, err)
			continue
		}
		if errs := ValidateManifest(m); len(errs) > 0 {
			c.log.Warnf("Invalid manifest %s: %v", path, errs)
			continue
		}
		entries = append(entries, entry{desc: m.Description(), path: path})
	}
	return entries, nil
}

func (c *Catalog) Find(id native.Identity) (native.Description, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.index[id]
	return e.desc, ok
}

// Spec returns the parsed manifest of id, from the cache when possible
func (c *Catalog) Spec(id native.Identity) (*simulator.Spec, error) {
	c.mu.RLock()
	e, ok := c.index[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	if spec, hit := c.cache.Get(id); hit {
		c.recorder.CatalogLookup(true)
		return spec, nil
	}
	c.recorder.CatalogLookup(false)

	m, err := LoadManifest(e.path)
	if err != nil {
		return nil, err
	}
	spec, err := m.Spec()
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", e.path, err)
	}
	c.cache.Add(id, spec)
	return spec, nil
}

func (c *Catalog) Instantiate(id native.Identity) (native.Instance, native.Code) {
	spec, err := c.Spec(id)
	if err != nil {
		c.log.WithError(err).WithField("component", id.String()).Warn("Failed to instantiate component")
		if errors.Is(err, ErrNotFound) {
			return nil, native.ErrInvalidProperty
		}
		return nil, native.ErrFailedInitialization
	}
	if spec.Faults.InstantiateCode != native.NoErr {
		return nil, spec.Faults.InstantiateCode
	}
	return simulator.New(spec), native.NoErr
}

func (c *Catalog) List(typ native.OSType) []native.Description {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []native.Description
	for id, e := range c.index {
		if id.Type == typ {
			out = append(out, e.desc)
		}
	}
	slices.SortFunc(out, func(a, b native.Description) int {
		return a.Identity.Compare(b.Identity)
	})
	return out
}

// HasValidName reports whether a component name is long enough to list.
// Components with names of five characters or fewer are placeholders.
func HasValidName(name string) bool {
	return len(name) > 5
}

// ListableTypes are the component types a complete listing covers
var ListableTypes = []native.OSType{native.TypeEffect, native.TypeMusicEffect, native.TypeMusicDevice}

// CompleteList returns the effects, music effects and music devices of cat
// that have valid names
func CompleteList(cat native.Catalog) []native.Description {
	var out []native.Description
	for _, typ := range ListableTypes {
		for _, d := range cat.List(typ) {
			if HasValidName(d.Name) {
				out = append(out, d)
			}
		}
	}
	return out
}
