// Package yamlconfig implements config.Loader for YAML files. Mappings become
// sections, scalars become values and sequences of scalars become list values.
// Keys are taken verbatim, so the YAML form can use the same space-separated
// names as the Config Tree ("part 1", "max replays").
package yamlconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/palila/internal/config"
	"github.com/vk/palila/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the file at path into a Config Tree.
func (l *Loader) Load(ctx context.Context, path string) (*config.Section, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", path, err)
	}
	return l.LoadBytes(ctx, src, path)
}

// LoadBytes parses in-memory YAML source.
func (l *Loader) LoadBytes(ctx context.Context, src []byte, filename string) (*config.Section, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "file", filename)

	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
	}

	name := filepath.Base(filename)
	root := config.NewRoot(fmt.Sprintf("%s:1", name))
	if doc.Kind == 0 {
		// Empty document.
		return root, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("YAML file %s must contain a single mapping at the top level", filename)
	}

	if err := translateMapping(doc.Content[0], root, name); err != nil {
		return nil, err
	}
	logger.Debug("YAML loading complete.", "file", filename, "top_level_keys", len(root.Keys()))
	return root, nil
}

func translateMapping(node *yaml.Node, into *config.Section, file string) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		key := keyNode.Value
		at := fmt.Sprintf("%s:%d", file, keyNode.Line)

		switch valNode.Kind {
		case yaml.MappingNode:
			section := config.NewSection(key, at)
			if err := translateMapping(valNode, section, file); err != nil {
				return err
			}
			if err := into.Add(section); err != nil {
				return err
			}
		case yaml.SequenceNode:
			items := make([]string, 0, len(valNode.Content))
			for _, elem := range valNode.Content {
				if elem.Kind != yaml.ScalarNode {
					return fmt.Errorf("key %q at %s: lists may only contain scalars", key, at)
				}
				items = append(items, elem.Value)
			}
			if err := into.Set(key, config.List(items, at)); err != nil {
				return err
			}
		case yaml.ScalarNode:
			if valNode.Tag == "!!null" {
				return fmt.Errorf("key %q at %s has no value", key, at)
			}
			if err := into.Set(key, config.Scalar(valNode.Value, at)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %q at %s: unsupported YAML node", key, at)
		}
	}
	return nil
}
