// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"math/rand"
	"reflect"
	"testing"
)

var tests = []struct {
	name       string
	compressor Compressor
}{
	{
		name:       "random data XZ",
		compressor: &XZ{},
	},
	{
		name:       "random data ZSTD",
		compressor: &Zstd{},
	},
}

func testData() []byte {
	b := make([]byte, 4096)
	rand.New(rand.NewSource(1)).Read(b)
	return append([]byte("MSS1"), b...)
}

func TestEncodeDecode(t *testing.T) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := testData()

			// Encoded and decode
			encoded, err := tt.compressor.Encode(want)
			if err != nil {
				t.Fatal(err)
			}
			if c := CompressorFromData(encoded); c == nil || c.Name() != tt.compressor.Name() {
				t.Fatalf("CompressorFromData() = %v; want %s", c, tt.compressor.Name())
			}
			got, err := tt.compressor.Decode(encoded)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatal("decoded data does not match the input")
			}

			got, err = Decode(encoded)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, want) {
				t.Fatal("Decode() does not match the input")
			}
		})
	}
}

func TestDecodeUncompressed(t *testing.T) {
	want := testData()
	got, err := Decode(want)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("uncompressed data was modified")
	}
}

func TestCompressorFromPath(t *testing.T) {
	for path, want := range map[string]string{
		"capsule.bin.xz":  "XZ",
		"capsule.bin.XZ":  "XZ",
		"capsule.bin.zst": "ZSTD",
		"capsule.zstd":    "ZSTD",
		"capsule.bin":     "",
	} {
		c := CompressorFromPath(path)
		got := ""
		if c != nil {
			got = c.Name()
		}
		if got != want {
			t.Errorf("CompressorFromPath(%q) = %q; want %q", path, got, want)
		}
	}
}
