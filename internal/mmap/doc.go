// Package mmap maps mutation files read-only into memory.
//
// Mutation inputs are scanned front to back once per run, so mappings are
// advised for sequential access by default. On Unix the package uses
// mmap(2) and madvise(2); on Windows it uses CreateFileMapping and
// MapViewOfFile, where access hints are ignored.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must not touch slices returned by Bytes after Close.
package mmap
