package hclconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/palila/internal/config"
	"github.com/vk/palila/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the file at path into a Config Tree.
func (l *Loader) Load(ctx context.Context, path string) (*config.Section, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read HCL file %s: %w", path, err)
	}
	return l.LoadBytes(ctx, src, path)
}

// LoadBytes parses in-memory HCL source. filename is only used for
// diagnostics and value origins.
func (l *Loader) LoadBytes(ctx context.Context, src []byte, filename string) (*config.Section, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "file", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("unexpected HCL body type %T in %s", file.Body, filename)
	}

	root := config.NewRoot(origin(body.SrcRange))
	if err := translateBody(body, root); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "file", filename, "top_level_keys", len(root.Keys()))
	return root, nil
}

// item is either an attribute or a block, tagged with its source offset so
// both kinds can be merged back into declaration order.
type item struct {
	offset int
	attr   *hclsyntax.Attribute
	block  *hclsyntax.Block
}

func translateBody(body *hclsyntax.Body, into *config.Section) error {
	items := make([]item, 0, len(body.Attributes)+len(body.Blocks))
	for _, attr := range body.Attributes {
		items = append(items, item{offset: attr.SrcRange.Start.Byte, attr: attr})
	}
	for _, block := range body.Blocks {
		items = append(items, item{offset: block.TypeRange.Start.Byte, block: block})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].offset < items[j].offset })

	for _, it := range items {
		if it.attr != nil {
			v, err := translateAttribute(it.attr)
			if err != nil {
				return err
			}
			if err := into.Set(KeyName(it.attr.Name), v); err != nil {
				return err
			}
			continue
		}

		name := strings.Join(append([]string{it.block.Type}, it.block.Labels...), " ")
		section := config.NewSection(name, origin(it.block.TypeRange))
		if err := translateBody(it.block.Body, section); err != nil {
			return err
		}
		if err := into.Add(section); err != nil {
			return err
		}
	}
	return nil
}

func translateAttribute(attr *hclsyntax.Attribute) (config.Value, error) {
	at := origin(attr.SrcRange)
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return config.Value{}, fmt.Errorf("attribute %q at %s must be a literal value: %w", attr.Name, at, diags)
	}
	if val.IsNull() || !val.IsWhollyKnown() {
		return config.Value{}, fmt.Errorf("attribute %q at %s has no value", attr.Name, at)
	}

	ty := val.Type()
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		var items []string
		it := val.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			s, err := ctyString(elem)
			if err != nil {
				return config.Value{}, fmt.Errorf("attribute %q at %s: %w", attr.Name, at, err)
			}
			items = append(items, s)
		}
		return config.List(items, at), nil
	}

	s, err := ctyString(val)
	if err != nil {
		return config.Value{}, fmt.Errorf("attribute %q at %s: %w", attr.Name, at, err)
	}
	return config.Scalar(s, at), nil
}

func ctyString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("null values are not allowed")
	}
	sv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot use %s as a string: %w", v.Type().FriendlyName(), err)
	}
	return sv.AsString(), nil
}

var trailingNumber = regexp.MustCompile(`_(\d+)$`)

// KeyName maps an HCL attribute name to its Config Tree key.
func KeyName(name string) string {
	suffix := ""
	if loc := trailingNumber.FindStringIndex(name); loc != nil {
		suffix = name[loc[0]:]
		name = name[:loc[0]]
	}
	return strings.ReplaceAll(name, "_", " ") + suffix
}

func origin(r hcl.Range) string {
	return fmt.Sprintf("%s:%d", filepath.Base(r.Filename), r.Start.Line)
}
