// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fmp implements parsing of the version 1 FMP payload header that
// prefixes a firmware update image, and evaluation of the component
// dependencies listed after it.
package fmp

import (
	"encoding/binary"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/linuxboot/fmppayload/pkg/check"
)

// HeaderSignature is the magic value at the start of the FMP payload
// header.
type HeaderSignature [4]byte

// Signature identifies version 1 of the FMP payload header. If the
// structure changes the last character changes with it.
var Signature = HeaderSignature{'M', 'S', 'S', '1'}

func (s HeaderSignature) String() string {
	return string(s[:])
}

// MarshalText implements encoding.TextMarshaler.
func (s HeaderSignature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *HeaderSignature) UnmarshalText(text []byte) error {
	if len(text) != len(s) {
		return fmt.Errorf("signature %q must be %d bytes long", text, len(s))
	}
	copy(s[:], text)
	return nil
}

// Layout of the fixed part of the header.
const (
	HeaderFixedSize = 16

	offsetSignature              = 0
	offsetHeaderSize             = 4
	offsetFirmwareVersion        = 8
	offsetLowestSupportedVersion = 12
)

// PayloadHeader is the fixed part of the FMP payload header. The
// dependency list follows it up to HeaderSize bytes from the start of the
// payload.
type PayloadHeader struct {
	Signature              HeaderSignature
	HeaderSize             uint32
	FirmwareVersion        uint32
	LowestSupportedVersion uint32
}

// decodeHeader reads the fixed header fields; b must hold at least
// HeaderFixedSize bytes.
func decodeHeader(b []byte) PayloadHeader {
	var hdr PayloadHeader
	copy(hdr.Signature[:], b[offsetSignature:offsetSignature+4])
	hdr.HeaderSize = binary.LittleEndian.Uint32(b[offsetHeaderSize:])
	hdr.FirmwareVersion = binary.LittleEndian.Uint32(b[offsetFirmwareVersion:])
	hdr.LowestSupportedVersion = binary.LittleEndian.Uint32(b[offsetLowestSupportedVersion:])
	return hdr
}

// validHeader performs the checks shared by all header accessors. Nothing
// is cached between calls, every accessor decodes the header again.
func validHeader(payload []byte) (PayloadHeader, error) {
	if payload == nil {
		return PayloadHeader{}, invalidf("no payload")
	}
	// At least one byte must follow the fixed header.
	if _, err := check.StrictlyWithin(uint64(len(payload)), 0, HeaderFixedSize); err != nil {
		return PayloadHeader{}, fmt.Errorf("%w: payload of %d bytes cannot hold an FMP payload header: %w",
			ErrInvalidParameter, len(payload), err)
	}
	hdr := decodeHeader(payload)
	if hdr.HeaderSize < HeaderFixedSize {
		return PayloadHeader{}, invalidf("header size %d; want at least %d", hdr.HeaderSize, HeaderFixedSize)
	}
	if hdr.Signature != Signature {
		return PayloadHeader{}, invalidf("invalid signature %q; want %q", hdr.Signature[:], Signature[:])
	}
	return hdr, nil
}

// ParseHeader validates and decodes the fixed FMP payload header at the
// start of payload. Like the field accessors it rejects a payload that ends
// right after the fixed header.
func ParseHeader(payload []byte) (*PayloadHeader, error) {
	hdr, err := validHeader(payload)
	if err != nil {
		return nil, err
	}
	return &hdr, nil
}

// ReadHeader is like ParseHeader, but accepts a payload consisting of just
// the fixed header, as written for a payload without dependencies and image.
func ReadHeader(payload []byte) (*PayloadHeader, error) {
	hdr, err := payloadHeader(payload)
	if err != nil {
		return nil, err
	}
	if _, err := hdr.DependencyBytes(); err != nil {
		return nil, err
	}
	return &hdr, nil
}

// HeaderSize returns the size in bytes of the FMP payload header, including
// the dependency list.
func HeaderSize(payload []byte) (uint32, error) {
	hdr, err := validHeader(payload)
	if err != nil {
		return 0, err
	}
	return hdr.HeaderSize, nil
}

// FirmwareVersion returns the firmware version declared by the FMP payload
// header.
func FirmwareVersion(payload []byte) (uint32, error) {
	hdr, err := validHeader(payload)
	if err != nil {
		return 0, err
	}
	return hdr.FirmwareVersion, nil
}

// LowestSupportedVersion returns the lowest supported version declared by
// the FMP payload header.
func LowestSupportedVersion(payload []byte) (uint32, error) {
	hdr, err := validHeader(payload)
	if err != nil {
		return 0, err
	}
	return hdr.LowestSupportedVersion, nil
}

// DependencyBytes returns the length of the dependency list.
func (hdr PayloadHeader) DependencyBytes() (uint32, error) {
	if hdr.HeaderSize < HeaderFixedSize {
		return 0, invalidf("header size %d is smaller than the fixed header (%d)", hdr.HeaderSize, HeaderFixedSize)
	}
	return hdr.HeaderSize - HeaderFixedSize, nil
}

// DependencyCount returns the number of dependency entries declared by the
// header size.
func (hdr PayloadHeader) DependencyCount() (int, error) {
	n, err := hdr.DependencyBytes()
	if err != nil {
		return 0, err
	}
	if n%DependencySize != 0 {
		return 0, invalidf("dependency list of %d bytes is not a multiple of %d", n, DependencySize)
	}
	return int(n / DependencySize), nil
}

// Image returns the part of the payload that follows the header.
func (hdr PayloadHeader) Image(payload []byte) ([]byte, error) {
	if err := check.BytesRange(uint64(len(payload)), 0, uint64(hdr.HeaderSize)); err != nil {
		return nil, fmt.Errorf("%w: header size %d exceeds payload: %w", ErrInvalidParameter, hdr.HeaderSize, err)
	}
	return payload[hdr.HeaderSize:], nil
}

// Summary prints a multi-line summary of the header's content.
func (hdr PayloadHeader) Summary() string {
	s := fmt.Sprintf("Signature                : %s\n", hdr.Signature[:])
	s += fmt.Sprintf("Header Size              : %#08x %d (%s)\n", hdr.HeaderSize, hdr.HeaderSize, humanize.IBytes(uint64(hdr.HeaderSize)))
	s += fmt.Sprintf("Firmware Version         : %#08x %d\n", hdr.FirmwareVersion, hdr.FirmwareVersion)
	s += fmt.Sprintf("Lowest Supported Version : %#08x %d\n", hdr.LowestSupportedVersion, hdr.LowestSupportedVersion)
	if n, err := hdr.DependencyCount(); err != nil {
		s += fmt.Sprintf("Dependencies             : invalid (%v)\n", err)
	} else {
		s += fmt.Sprintf("Dependencies             : %d\n", n)
	}
	return s
}
