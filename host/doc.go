// Package host drives image effect plugins through their lifecycle.
//
// A Host owns the plugin and instance registries, the bundles loaded on
// their behalf and the state shared by the suites those bundles call. It
// executes decoded command-file entries one at a time: loading and
// describing plugins, creating filter instances, writing parameters,
// rendering single frames and tearing everything down again.
//
// Every plugin action is a synchronous call. Suite calls made by the
// plugin during an action re-enter the host on the same goroutine.
package host
