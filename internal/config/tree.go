package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/palila/internal/experr"
)

// Value is a leaf of the Config Tree: either a single scalar or a list of
// scalars, always carried as strings.
type Value struct {
	Items  []string
	IsList bool
	// Origin is the source position of the value, when the loader knows it.
	Origin string
}

// Scalar creates a single-item value.
func Scalar(s, origin string) Value {
	return Value{Items: []string{s}, Origin: origin}
}

// List creates a list value.
func List(items []string, origin string) Value {
	return Value{Items: append([]string(nil), items...), IsList: true, Origin: origin}
}

// String returns the scalar, or the list items joined by ", ".
func (v Value) String() string {
	if !v.IsList && len(v.Items) == 1 {
		return v.Items[0]
	}
	return strings.Join(v.Items, ", ")
}

// Strings returns the value as a list. A scalar becomes a one-item list.
func (v Value) Strings() []string {
	return append([]string(nil), v.Items...)
}

type entry struct {
	key     string
	value   *Value
	section *Section
}

// Section is a named node of the Config Tree. Keys are unique within a
// section, whether they name a value or a subsection.
type Section struct {
	Name   string
	Origin string

	path    string
	entries []entry
	index   map[string]int
}

// NewSection creates an empty, detached section.
func NewSection(name, origin string) *Section {
	return &Section{
		Name:   name,
		Origin: origin,
		path:   name,
		index:  make(map[string]int),
	}
}

// NewRoot creates the unnamed top-level section of a file.
func NewRoot(origin string) *Section {
	return NewSection("", origin)
}

// Path is the section's location in the tree, e.g. "part 1 > audio 2".
func (s *Section) Path() string {
	return s.path
}

// Set adds a value under key. Duplicate keys are rejected.
func (s *Section) Set(key string, v Value) error {
	if _, exists := s.index[key]; exists {
		return experr.Configf(experr.Path(s.path, key), v.Origin, "duplicate key %q", key)
	}
	val := v
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, entry{key: key, value: &val})
	return nil
}

// Add attaches child as a subsection. Duplicate names are rejected.
func (s *Section) Add(child *Section) error {
	if _, exists := s.index[child.Name]; exists {
		return experr.Configf(experr.Path(s.path, child.Name), child.Origin, "duplicate section %q", child.Name)
	}
	child.rebase(s.path)
	s.index[child.Name] = len(s.entries)
	s.entries = append(s.entries, entry{key: child.Name, section: child})
	return nil
}

func (s *Section) rebase(parent string) {
	s.path = experr.Path(parent, s.Name)
	for _, e := range s.entries {
		if e.section != nil {
			e.section.rebase(s.path)
		}
	}
}

// Keys returns every key, values and subsections alike, in declaration order.
func (s *Section) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Has reports whether key names a value or a subsection.
func (s *Section) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Value returns the value stored under key.
func (s *Section) Value(key string) (Value, bool) {
	i, ok := s.index[key]
	if !ok || s.entries[i].value == nil {
		return Value{}, false
	}
	return *s.entries[i].value, true
}

// Section returns the subsection stored under name.
func (s *Section) Section(name string) (*Section, bool) {
	i, ok := s.index[name]
	if !ok || s.entries[i].section == nil {
		return nil, false
	}
	return s.entries[i].section, true
}

// Sections returns all subsections in declaration order.
func (s *Section) Sections() []*Section {
	var out []*Section
	for _, e := range s.entries {
		if e.section != nil {
			out = append(out, e.section)
		}
	}
	return out
}

// SectionsWithPrefix returns the subsections whose name starts with prefix,
// e.g. "part " or "question ", in declaration order.
func (s *Section) SectionsWithPrefix(prefix string) []*Section {
	var out []*Section
	for _, sec := range s.Sections() {
		if strings.HasPrefix(sec.Name, prefix) {
			out = append(out, sec)
		}
	}
	return out
}

// Clone returns a deep copy detached from any parent.
func (s *Section) Clone() *Section {
	c := NewSection(s.Name, s.Origin)
	for _, e := range s.entries {
		if e.section != nil {
			_ = c.Add(e.section.Clone())
			continue
		}
		v := *e.value
		v.Items = append([]string(nil), v.Items...)
		_ = c.Set(e.key, v)
	}
	return c
}

// String returns the scalar string under key.
func (s *Section) String(key string) (string, bool) {
	v, ok := s.Value(key)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// StringOr returns the scalar string under key, or def when absent.
func (s *Section) StringOr(key, def string) string {
	if v, ok := s.String(key); ok {
		return v
	}
	return def
}

// Bool reads key as a boolean, accepting yes/no, true/false, on/off and 1/0.
// An absent key yields def.
func (s *Section) Bool(key string, def bool) (bool, error) {
	v, ok := s.Value(key)
	if !ok {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v.String())) {
	case "yes", "true", "on", "1":
		return true, nil
	case "no", "false", "off", "0":
		return false, nil
	}
	return false, s.errorf(key, v.Origin, "value %q is not a boolean", v.String())
}

// Int reads key as an integer. Values such as "3.0" are accepted when whole.
func (s *Section) Int(key string) (int, bool, error) {
	v, ok := s.Value(key)
	if !ok {
		return 0, false, nil
	}
	raw := strings.TrimSpace(v.String())
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, true, s.errorf(key, v.Origin, "value %q is not an integer", raw)
	}
	return int(f), true, nil
}

// Float reads key as a floating point number.
func (s *Section) Float(key string) (float64, bool, error) {
	v, ok := s.Value(key)
	if !ok {
		return 0, false, nil
	}
	raw := strings.TrimSpace(v.String())
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, s.errorf(key, v.Origin, "value %q is not a number", raw)
	}
	return f, true, nil
}

// Errorf builds a ConfigError located at key inside this section.
func (s *Section) Errorf(key, format string, args ...any) error {
	origin := s.Origin
	if v, ok := s.Value(key); ok && v.Origin != "" {
		origin = v.Origin
	}
	if sub, ok := s.Section(key); ok && sub.Origin != "" {
		origin = sub.Origin
	}
	return s.errorf(key, origin, format, args...)
}

func (s *Section) errorf(key, origin, format string, args ...any) error {
	return &experr.ConfigError{Path: experr.Path(s.path, key), Origin: origin, Msg: fmt.Sprintf(format, args...)}
}
