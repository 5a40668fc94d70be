// Package buffer provides a thread-safe text buffer used as the document
// storage for refwalk. It is the primary interface for text manipulation.
//
// The buffer package provides:
//
//   - Thread-safe read/write access via sync.RWMutex
//   - Coordinate conversion between byte offsets and line/column positions
//   - Line ending normalization
//   - Revision tracking for change management
//
// Storage is a flat byte slice with a line-start index rebuilt on every
// edit. Documents edited with refwalk are human-scale, so linear rebuilds
// are cheaper than maintaining a balanced structure.
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("Hello, World!")
//	buf.Insert(7, "Beautiful ")  // "Hello, Beautiful World!"
//	buf.Delete(0, 7)             // "Beautiful World!"
//
// Position Types:
//
//   - ByteOffset: Raw byte position in the buffer
//   - Point: Line and column position (0-indexed, column in bytes)
//
// Thread Safety:
//
// All Buffer methods are thread-safe. Read operations acquire a read lock,
// while write operations acquire an exclusive write lock.
package buffer
