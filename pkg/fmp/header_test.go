// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmp

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	// header only: size 0x10, version 0x20001, lowest supported 0x10000,
	// followed by a four byte image.
	testPayloadNoDeps = []byte("MSS1\x10\x00\x00\x00\x01\x00\x02\x00\x00\x00\x01\x00\xde\xad\xbe\xef")
)

type accessor struct {
	name string
	fn   func([]byte) (uint32, error)
}

var accessors = []accessor{
	{"HeaderSize", HeaderSize},
	{"FirmwareVersion", FirmwareVersion},
	{"LowestSupportedVersion", LowestSupportedVersion},
}

func rawHeader(signature string, headerSize, version, lsv uint32, trailing int) []byte {
	b := make([]byte, HeaderFixedSize+trailing)
	copy(b, signature)
	binary.LittleEndian.PutUint32(b[4:], headerSize)
	binary.LittleEndian.PutUint32(b[8:], version)
	binary.LittleEndian.PutUint32(b[12:], lsv)
	return b
}

func TestAccessors(t *testing.T) {
	size, err := HeaderSize(testPayloadNoDeps)
	require.NoError(t, err)
	require.Equal(t, uint32(0x10), size)

	version, err := FirmwareVersion(testPayloadNoDeps)
	require.NoError(t, err)
	require.Equal(t, uint32(0x20001), version)

	lsv, err := LowestSupportedVersion(testPayloadNoDeps)
	require.NoError(t, err)
	require.Equal(t, uint32(0x10000), lsv)
}

func TestAccessorsOrderIndependent(t *testing.T) {
	payload := rawHeader("MSS1", 0x40, 7, 3, 0x40)
	forward := make([]uint32, len(accessors))
	for i, a := range accessors {
		v, err := a.fn(payload)
		require.NoError(t, err, a.name)
		forward[i] = v
	}
	for i := len(accessors) - 1; i >= 0; i-- {
		v, err := accessors[i].fn(payload)
		require.NoError(t, err, accessors[i].name)
		require.Equal(t, forward[i], v, accessors[i].name)
	}
	require.Equal(t, []uint32{0x40, 7, 3}, forward)
}

func TestAccessorsInvalid(t *testing.T) {
	var tests = []struct {
		name    string
		payload []byte
		errMsg  string
	}{
		{"nil", nil, "no payload"},
		{"empty", []byte{}, "cannot hold"},
		{"short", []byte("MSS1\x10\x00\x00\x00"), "cannot hold"},
		// the fixed header must be followed by at least one byte
		{"exact_fixed_size", rawHeader("MSS1", 16, 1, 1, 0), "cannot hold"},
		{"header_size_too_small", rawHeader("MSS1", 15, 1, 1, 1), "header size 15"},
		{"bad_signature", rawHeader("MSS2", 16, 1, 1, 1), "invalid signature"},
		{"zero_signature", rawHeader("\x00\x00\x00\x00", 16, 1, 1, 1), "invalid signature"},
	}
	for _, test := range tests {
		for _, a := range accessors {
			t.Run(test.name+"/"+a.name, func(t *testing.T) {
				v, err := a.fn(test.payload)
				require.ErrorIs(t, err, ErrInvalidParameter)
				require.Contains(t, err.Error(), test.errMsg)
				require.Zero(t, v)
			})
		}
	}
}

// The header size field is checked before the signature.
func TestAccessorsCheckOrder(t *testing.T) {
	_, err := HeaderSize(rawHeader("XXXX", 0, 0, 0, 1))
	require.ErrorIs(t, err, ErrInvalidParameter)
	require.Contains(t, err.Error(), "header size 0")
}

func TestAccessorsShortBuffers(t *testing.T) {
	full := rawHeader("MSS1", 16, 1, 1, 0)
	for l := 0; l <= HeaderFixedSize; l++ {
		for _, a := range accessors {
			_, err := a.fn(full[:l])
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("%s on %d bytes: got %v; want ErrInvalidParameter", a.name, l, err)
			}
		}
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	for _, size := range []uint32{HeaderFixedSize, 17, HeaderFixedSize + DependencySize, 0xffffffff} {
		for _, version := range []uint32{0, 1, 0x12345678, 0xffffffff} {
			payload := rawHeader("MSS1", size, version, 0, 1)
			gotSize, err := HeaderSize(payload)
			require.NoError(t, err)
			assert.Equal(t, size, gotSize)
			gotVersion, err := FirmwareVersion(payload)
			require.NoError(t, err)
			assert.Equal(t, version, gotVersion)
		}
	}
}

func TestParseHeader(t *testing.T) {
	hdr, err := ParseHeader(testPayloadNoDeps)
	require.NoError(t, err)
	require.Equal(t, Signature, hdr.Signature)
	require.Equal(t, uint32(0x10), hdr.HeaderSize)

	n, err := hdr.DependencyCount()
	require.NoError(t, err)
	require.Zero(t, n)

	image, err := hdr.Image(testPayloadNoDeps)
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, image)

	_, err = ParseHeader(rawHeader("MSS2", 16, 0, 0, 1))
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestReadHeader(t *testing.T) {
	headerOnly := rawHeader("MSS1", HeaderFixedSize, 5, 4, 0)
	_, err := ParseHeader(headerOnly)
	require.ErrorIs(t, err, ErrInvalidParameter)

	hdr, err := ReadHeader(headerOnly)
	require.NoError(t, err)
	require.Equal(t, uint32(5), hdr.FirmwareVersion)
	image, err := hdr.Image(headerOnly)
	require.NoError(t, err)
	require.Empty(t, image)

	for _, payload := range [][]byte{
		nil,
		headerOnly[:HeaderFixedSize-1],
		rawHeader("MSS2", HeaderFixedSize, 0, 0, 0),
		rawHeader("MSS1", 4, 0, 0, 0),
	} {
		_, err := ReadHeader(payload)
		require.ErrorIs(t, err, ErrInvalidParameter)
	}
}

func TestHeaderSignatureText(t *testing.T) {
	b, err := json.Marshal(PayloadHeader{Signature: Signature, HeaderSize: HeaderFixedSize})
	require.NoError(t, err)
	require.Contains(t, string(b), `"Signature":"MSS1"`)

	var hdr PayloadHeader
	require.NoError(t, json.Unmarshal(b, &hdr))
	require.Equal(t, Signature, hdr.Signature)

	var s HeaderSignature
	require.Error(t, s.UnmarshalText([]byte("MSS")))
}

func TestHeaderImageOutOfBounds(t *testing.T) {
	payload := rawHeader("MSS1", 0x100, 1, 1, 4)
	hdr, err := ParseHeader(payload)
	require.NoError(t, err)
	_, err = hdr.Image(payload)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDependencyCount(t *testing.T) {
	n, err := PayloadHeader{HeaderSize: HeaderFixedSize + 2*DependencySize}.DependencyCount()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = PayloadHeader{HeaderSize: HeaderFixedSize + 1}.DependencyCount()
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = PayloadHeader{HeaderSize: 1}.DependencyCount()
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSummary(t *testing.T) {
	hdr, err := ParseHeader(testPayloadNoDeps)
	require.NoError(t, err)
	s := hdr.Summary()
	require.True(t, strings.HasPrefix(s, "Signature                : MSS1\n"), s)
	require.Contains(t, s, "Firmware Version         : ")
	require.Contains(t, s, " 131073\n")
	require.Contains(t, s, "Dependencies             : 0")

	s = PayloadHeader{Signature: Signature, HeaderSize: 17}.Summary()
	require.Contains(t, s, "Dependencies             : invalid")
}
