// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compression implements reading and writing of compressed FMP
// payload files.
package compression

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Compressor defines a single compression scheme (such as XZ).
type Compressor interface {
	// Name is typically the name of a class.
	Name() string

	// Decode and Encode obey "x == Decode(Encode(x))".
	Decode(encodedData []byte) ([]byte, error)
	Encode(decodedData []byte) ([]byte, error)
}

var (
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// CompressorFromPath returns a Compressor for the file name extension of
// path, or nil if the file is not compressed.
func CompressorFromPath(path string) Compressor {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		return &XZ{}
	case ".zst", ".zstd":
		return &Zstd{}
	}
	return nil
}

// CompressorFromData returns a Compressor by looking at the magic bytes
// of data, or nil if no known format is recognized. An FMP payload starts
// with its own signature, so it is never mistaken for compressed data.
func CompressorFromData(data []byte) Compressor {
	switch {
	case bytes.HasPrefix(data, xzMagic):
		return &XZ{}
	case bytes.HasPrefix(data, zstdMagic):
		return &Zstd{}
	}
	return nil
}

// Decode decompresses data if it is in a known compressed format, and
// returns it unchanged otherwise.
func Decode(data []byte) ([]byte, error) {
	c := CompressorFromData(data)
	if c == nil {
		return data, nil
	}
	return c.Decode(data)
}
