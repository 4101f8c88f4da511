// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmp

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/linuxboot/fmppayload/pkg/check"
	"github.com/linuxboot/fmppayload/pkg/guid"
)

// Layout of one dependency entry.
const (
	DependencySize = 24

	offsetComponent               = 0
	offsetRequiredVersionInSystem = 16
	offsetImageIndex              = 20
	offsetReserved                = 21
	offsetFlags                   = 22
)

// DependencyFlags describes how a dependency is evaluated.
type DependencyFlags uint16

// Dependency flags. All other bits are reserved.
const (
	// DependencyFlagRequired means the component must be present in the
	// system. By default a dependency only applies if the component is
	// present.
	DependencyFlagRequired DependencyFlags = 0x0001
	// DependencyFlagMatchExactVersion means the version in the system must
	// match exactly. By default it must be greater than or equal.
	DependencyFlagMatchExactVersion DependencyFlags = 0x0002

	knownDependencyFlags = DependencyFlagRequired | DependencyFlagMatchExactVersion
)

// IsRequired returns true if the component must be present in the system.
func (f DependencyFlags) IsRequired() bool {
	return f&DependencyFlagRequired != 0
}

// IsExactMatch returns true if the system version must equal the required
// version.
func (f DependencyFlags) IsExactMatch() bool {
	return f&DependencyFlagMatchExactVersion != 0
}

// Unknown returns the bits not defined by this header version.
func (f DependencyFlags) Unknown() DependencyFlags {
	return f &^ knownDependencyFlags
}

func (f DependencyFlags) String() string {
	var flags []string
	if f.IsRequired() {
		flags = append(flags, "REQUIRED")
	}
	if f.IsExactMatch() {
		flags = append(flags, "EXACT_MATCH")
	}
	if u := f.Unknown(); u != 0 {
		flags = append(flags, fmt.Sprintf("%#04x", uint16(u)))
	}
	if len(flags) == 0 {
		return "NONE"
	}
	return strings.Join(flags, "|")
}

// MarshalText implements encoding.TextMarshaler.
func (f DependencyFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the output
// of String.
func (f *DependencyFlags) UnmarshalText(text []byte) error {
	var flags DependencyFlags
	for _, s := range strings.Split(string(text), "|") {
		switch s {
		case "NONE":
		case "REQUIRED":
			flags |= DependencyFlagRequired
		case "EXACT_MATCH":
			flags |= DependencyFlagMatchExactVersion
		default:
			v, err := strconv.ParseUint(s, 0, 16)
			if err != nil {
				return fmt.Errorf("unknown dependency flag %q in %q", s, text)
			}
			flags |= DependencyFlags(v)
		}
	}
	*f = flags
	return nil
}

// Dependency is one entry of the dependency list. The field order matches
// the on-disk layout.
type Dependency struct {
	Component               guid.GUID
	RequiredVersionInSystem uint32
	ImageIndex              uint8
	Reserved                uint8
	Flags                   DependencyFlags
}

func (d Dependency) String() string {
	return fmt.Sprintf("%v[%d] >= %#x (%v)", d.Component, d.ImageIndex, d.RequiredVersionInSystem, d.Flags)
}

// ParseDependency decodes a dependency entry from the first DependencySize
// bytes of b. The reserved byte is kept but not validated.
func ParseDependency(b []byte) (Dependency, error) {
	if len(b) < DependencySize {
		return Dependency{}, invalidf("short dependency length %d; want %d", len(b), DependencySize)
	}
	var d Dependency
	copy(d.Component[:], b[offsetComponent:offsetComponent+guid.Size])
	d.RequiredVersionInSystem = binary.LittleEndian.Uint32(b[offsetRequiredVersionInSystem:])
	d.ImageIndex = b[offsetImageIndex]
	d.Reserved = b[offsetReserved]
	d.Flags = DependencyFlags(binary.LittleEndian.Uint16(b[offsetFlags:]))
	return d, nil
}

// dependencyRegion validates the dependency list of hdr against the payload
// and returns its offsets.
func dependencyRegion(hdr PayloadHeader, payload []byte) (start, end uint64, err error) {
	depBytes, err := hdr.DependencyBytes()
	if err != nil {
		return 0, 0, err
	}
	if depBytes%DependencySize != 0 {
		return 0, 0, invalidf("dependency list of %d bytes is not a multiple of %d", depBytes, DependencySize)
	}
	end, err = check.Region(uint64(len(payload)), HeaderFixedSize, uint64(depBytes))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: dependency list does not fit into payload of %d bytes: %w",
			ErrInvalidParameter, len(payload), err)
	}
	return HeaderFixedSize, end, nil
}

// payloadHeader checks that the fixed header is readable and carries the
// right signature. Unlike the accessors a payload consisting of just the
// header is accepted.
func payloadHeader(payload []byte) (PayloadHeader, error) {
	if payload == nil {
		return PayloadHeader{}, invalidf("no payload")
	}
	if _, err := check.Region(uint64(len(payload)), 0, HeaderFixedSize); err != nil {
		return PayloadHeader{}, fmt.Errorf("%w: payload of %d bytes cannot hold an FMP payload header: %w",
			ErrInvalidParameter, len(payload), err)
	}
	hdr := decodeHeader(payload)
	if hdr.Signature != Signature {
		return PayloadHeader{}, invalidf("invalid signature %q; want %q", hdr.Signature[:], Signature[:])
	}
	return hdr, nil
}

// Dependencies decodes the dependency list of the payload in on-disk order.
func Dependencies(payload []byte) ([]Dependency, error) {
	hdr, err := payloadHeader(payload)
	if err != nil {
		return nil, err
	}
	start, end, err := dependencyRegion(hdr, payload)
	if err != nil {
		return nil, err
	}
	deps := make([]Dependency, 0, (end-start)/DependencySize)
	for off := start; off < end; off += DependencySize {
		d, err := ParseDependency(payload[off : off+DependencySize])
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}
