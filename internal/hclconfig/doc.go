// Package hclconfig implements config.Loader for HCL files.
//
// Blocks become sections named by their type and labels joined with a space,
// so `part "1" { audio "2" {} }` yields the sections "part 1" and "audio 2".
// Attribute names use underscores between words; they are mapped to the
// space-separated keys of the Config Tree (`max_replays` -> "max replays").
// An underscore that introduces a trailing number is kept (`filename_2`).
//
// Attributes must be literal: strings, numbers, booleans or tuples of those.
// Declaration order of attributes and blocks is preserved using their source
// offsets.
package hclconfig
