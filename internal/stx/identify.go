// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stx

import (
	"bytes"
	"runtime"
	"strconv"
)

// DefaultIdentify derives a ThreadId from the calling goroutine's runtime
// id. Go has no pthread-style OS thread identity a goroutine stays pinned
// to, so this substitutes the goroutine id the runtime already prints in
// its own stack dumps as the closest stable per-caller identity, wrapped
// as Synthetic since it is a Go-runtime construct rather than an OS tid.
func DefaultIdentify() ThreadId {
	return Synthetic(goroutineID())
}

func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if i := bytes.Index(b, []byte(prefix)); i >= 0 {
		b = b[i+len(prefix):]
	}
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
