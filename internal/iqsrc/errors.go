package iqsrc

import "io"

// errEndOfStream is returned by Read once a source has nothing further
// to deliver (the replay file is exhausted, or the radio driver thread
// has terminated). It is io.EOF so callers can use the usual idiom.
var errEndOfStream = io.EOF
