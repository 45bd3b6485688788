// Package entities provides the core domain types of the host: status codes,
// property values and property sets, parameter types and values, effects,
// clips, images and the commands that drive them.
//
// Nothing in this package knows about guest memory or plugin loading; the
// types here are what the suites validate against before any plugin-visible
// effect happens.
package entities
