// Package cli implements the ofxdriver command line: a cobra command tree
// over host.Host, configured through flags, environment and an optional
// YAML file.
package cli
