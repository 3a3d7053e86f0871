// Package config defines the Config Tree: the format-agnostic, order-preserving
// representation of an experiment configuration file, along with the Loader
// interface implemented by the format-specific packages (hclconfig, yamlconfig).
//
// A Section holds keyed scalar or list values and named subsections in their
// declaration order. Loaders build the tree once; everything downstream only
// reads it. The experiment package converts it into typed, immutable values.
package config
