// Package ioutils provides the file system seam used by ratings persistence
// and small file helpers.
//
// # File System
//
// Code that must survive crashes writes through FileSystem so tests can
// inject failures:
//
//	fsys := ioutils.NewFaultyFS(nil)
//	fsys.AddRule(".ratings", ioutils.Fault{FailAfterBytes: 16})
//	// writes to any path containing ".ratings" fail after 16 bytes
//
// LocalFS is the production implementation and Default points to it.
//
// # Filename Sanitization
//
// Use SanitizeFileName to remove invalid characters from exported
// playlist names:
//
//	safe := ioutils.SanitizeFileName("Mix: Part 1/2") // Returns "Mix_ Part 1_2"
package ioutils
