// Package builtin provides image effect plugins compiled into the host:
// identity, invert and gain filters. They use the same suites and the
// same pointer model as wasm plugins, so scripts can exercise the host
// without any bundle on disk.
package builtin
