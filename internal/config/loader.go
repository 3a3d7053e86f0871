package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/fsutil"
)

// DefaultFileName is looked up first when an experiment directory is given.
const DefaultFileName = "experiment.hcl"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads one configuration file and translates it into a Config Tree.
	Load(ctx context.Context, path string) (*Section, error)
}

// Selector dispatches to a Loader by file extension.
type Selector struct {
	byExt map[string]Loader
}

// NewSelector creates a Selector. Extensions include the leading dot.
func NewSelector(loaders map[string]Loader) *Selector {
	byExt := make(map[string]Loader, len(loaders))
	for ext, l := range loaders {
		byExt[strings.ToLower(ext)] = l
	}
	return &Selector{byExt: byExt}
}

// Extensions returns the supported extensions in lexical order.
func (s *Selector) Extensions() []string {
	exts := make([]string, 0, len(s.byExt))
	for ext := range s.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Resolve maps a file or experiment directory to the configuration file to load.
func (s *Selector) Resolve(path string) (string, error) {
	return fsutil.ResolveFile(path, []string{DefaultFileName}, s.Extensions()...)
}

// Load resolves path and hands the file to the loader registered for its extension.
func (s *Selector) Load(ctx context.Context, path string) (*Section, error) {
	logger := ctxlog.FromContext(ctx)

	file, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file))
	loader, ok := s.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported configuration format %q for %s", ext, file)
	}
	logger.Debug("Loading experiment configuration.", "file", file, "format", ext)

	root, err := loader.Load(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file, err)
	}
	return root, nil
}
