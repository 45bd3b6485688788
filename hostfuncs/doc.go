// Package hostfuncs implements the host side of the image effect suites in
// pure Go. It has NO WASM runtime dependencies: suites are called directly
// by builtin plugins and through the Registry by guest modules, with every
// pointer argument resolved against a ports.Memory.
package hostfuncs
