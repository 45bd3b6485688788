// Package ports defines the interfaces between the host engine and its
// collaborators: plugin memory, bundles and their plugins, image codecs,
// and command/manifest parsing.
package ports
