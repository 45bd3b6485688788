// Package bundle locates plugin bundles by name and opens them.
//
// A bundle is either an entry of an in-process catalog or a directory on a
// search path laid out as
//
//	<name>.bundle/
//	  Contents/
//	    Info.yaml
//	    Wasm/<executable>.wasm
//
// Info.yaml is parsed into an entities.BundleManifest. The executable is
// loaded into a shared wazero runtime that is created on first use.
package bundle
