// Package iqsrc provides the byte-source contract the rest of the
// pipeline is built against, plus the two concrete variants a caller
// can wire up: a raw-file replay source and a live RTL2832U radio
// source. The USB driver itself stays an external collaborator: this
// package only bridges its blocking callback to the contract below.
package iqsrc

import "io"

// Source is a lazy stream of interleaved I/Q bytes. Read may return
// 0..N bytes; io.EOF is terminal. Implementations must turn I/O errors
// into a terminal io.EOF-equivalent end of stream rather than letting
// callers retry indefinitely — the pipeline has no recovery path for a
// mid-stream error, only for a clean end.
type Source interface {
	io.Reader
	io.Closer
}
