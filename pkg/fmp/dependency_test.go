// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxboot/fmppayload/pkg/guid"
)

var (
	testComponentA = *guid.MustParse("A0C1D8C8-2D6A-4C76-8E5D-000000000001")
	testComponentB = *guid.MustParse("A0C1D8C8-2D6A-4C76-8E5D-000000000002")
)

func TestParseDependency(t *testing.T) {
	b := make([]byte, DependencySize)
	copy(b, testComponentA[:])
	b[16], b[17], b[18], b[19] = 0x78, 0x56, 0x34, 0x12
	b[20] = 3
	b[21] = 0xaa
	b[22], b[23] = 0x03, 0x80

	d, err := ParseDependency(b)
	require.NoError(t, err)
	require.Equal(t, testComponentA, d.Component)
	require.Equal(t, uint32(0x12345678), d.RequiredVersionInSystem)
	require.Equal(t, uint8(3), d.ImageIndex)
	require.Equal(t, uint8(0xaa), d.Reserved)
	require.Equal(t, DependencyFlags(0x8003), d.Flags)
	require.True(t, d.Flags.IsRequired())
	require.True(t, d.Flags.IsExactMatch())
	require.Equal(t, DependencyFlags(0x8000), d.Flags.Unknown())

	_, err = ParseDependency(b[:DependencySize-1])
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDependencyFlagsString(t *testing.T) {
	require.Equal(t, "NONE", DependencyFlags(0).String())
	require.Equal(t, "REQUIRED", DependencyFlagRequired.String())
	require.Equal(t, "REQUIRED|EXACT_MATCH", (DependencyFlagRequired | DependencyFlagMatchExactVersion).String())
	require.Equal(t, "EXACT_MATCH|0x0010", DependencyFlags(0x12).String())
}

func TestDependencyFlagsText(t *testing.T) {
	for _, f := range []DependencyFlags{0, DependencyFlagRequired, DependencyFlagMatchExactVersion, 0x8003, 0x12} {
		text, err := f.MarshalText()
		require.NoError(t, err)
		require.Equal(t, f.String(), string(text))

		var got DependencyFlags
		require.NoError(t, got.UnmarshalText(text))
		require.Equal(t, f, got)
	}

	var f DependencyFlags
	require.Error(t, f.UnmarshalText([]byte("OPTIONAL")))
	require.Error(t, f.UnmarshalText([]byte("0x10000")))
}

func TestDependencies(t *testing.T) {
	want := []Dependency{
		{Component: testComponentA, RequiredVersionInSystem: 1, Flags: DependencyFlagRequired},
		{Component: testComponentB, RequiredVersionInSystem: 2, ImageIndex: 1, Reserved: 0x55},
	}
	payload, err := Payload{Dependencies: want, Image: []byte{1}}.Bytes()
	require.NoError(t, err)

	deps, err := Dependencies(payload)
	require.NoError(t, err)
	require.Equal(t, want, deps)
}

func TestDependenciesInvalid(t *testing.T) {
	t.Run("remainder", func(t *testing.T) {
		_, err := Dependencies(rawHeader("MSS1", HeaderFixedSize+DependencySize+1, 0, 0, DependencySize+1))
		require.ErrorIs(t, err, ErrInvalidParameter)
		require.Contains(t, err.Error(), "not a multiple")
	})
	t.Run("past_end_of_buffer", func(t *testing.T) {
		_, err := Dependencies(rawHeader("MSS1", HeaderFixedSize+2*DependencySize, 0, 0, DependencySize))
		require.ErrorIs(t, err, ErrInvalidParameter)
		require.Contains(t, err.Error(), "does not fit")
	})
	t.Run("huge_header_size", func(t *testing.T) {
		// 0xffffffe8 - 16 is a multiple of 24
		_, err := Dependencies(rawHeader("MSS1", 0xffffffe8, 0, 0, DependencySize))
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
	t.Run("header_size_below_fixed", func(t *testing.T) {
		_, err := Dependencies(rawHeader("MSS1", 4, 0, 0, 0))
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
	t.Run("signature", func(t *testing.T) {
		_, err := Dependencies(rawHeader("MSS0", HeaderFixedSize, 0, 0, 0))
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
}
