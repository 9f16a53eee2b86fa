// Package memory provides in-process implementations of the index, manifest
// and run history ports. Nothing survives the process, so a memory-backed
// index is rebuilt from the corpus on every invocation.
package memory
