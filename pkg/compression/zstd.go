// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"github.com/klauspost/compress/zstd"
)

// Zstd implements Compressor for Zstandard frames.
type Zstd struct{}

// Name returns the type of compression employed.
func (c *Zstd) Name() string {
	return "ZSTD"
}

// Decode decodes a byte slice of Zstandard data.
func (c *Zstd) Decode(encodedData []byte) ([]byte, error) {
	r, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.DecodeAll(encodedData, nil)
}

// Encode encodes a byte slice with Zstandard.
func (c *Zstd) Encode(decodedData []byte) ([]byte, error) {
	w, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer w.Close()
	return w.EncodeAll(decodedData, nil), nil
}
