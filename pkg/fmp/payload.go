// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmp

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/xaionaro-go/bytesextra"
)

// Payload describes an FMP payload to be assembled: a header carrying the
// dependency list, followed by the firmware image.
type Payload struct {
	FirmwareVersion        uint32
	LowestSupportedVersion uint32
	Dependencies           []Dependency
	Image                  []byte
}

// HeaderSize returns the value of the HeaderSize field for this payload.
func (p Payload) HeaderSize() (uint32, error) {
	size := uint64(HeaderFixedSize) + uint64(len(p.Dependencies))*DependencySize
	if size > math.MaxUint32 {
		return 0, fmt.Errorf("%d dependencies do not fit into an FMP payload header", len(p.Dependencies))
	}
	return uint32(size), nil
}

// Header returns the fixed header of this payload.
func (p Payload) Header() (PayloadHeader, error) {
	size, err := p.HeaderSize()
	if err != nil {
		return PayloadHeader{}, err
	}
	return PayloadHeader{
		Signature:              Signature,
		HeaderSize:             size,
		FirmwareVersion:        p.FirmwareVersion,
		LowestSupportedVersion: p.LowestSupportedVersion,
	}, nil
}

// Bytes compiles the payload into its binary representation.
func (p Payload) Bytes() ([]byte, error) {
	size, err := p.HeaderSize()
	if err != nil {
		return nil, err
	}
	b := make([]byte, uint64(size)+uint64(len(p.Image)))
	if _, err := p.WriteTo(bytesextra.NewReadWriteSeeker(b)); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteTo writes the binary representation of the payload to w.
func (p Payload) WriteTo(w io.Writer) (int64, error) {
	hdr, err := p.Header()
	if err != nil {
		return 0, err
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return 0, fmt.Errorf("unable to write the FMP payload header: %w", err)
	}
	n := int64(HeaderFixedSize)
	for idx, d := range p.Dependencies {
		if err := binary.Write(w, binary.LittleEndian, d); err != nil {
			return n, fmt.Errorf("unable to write dependency #%d (%v): %w", idx, d, err)
		}
		n += DependencySize
	}
	if len(p.Image) == 0 {
		return n, nil
	}
	m, err := w.Write(p.Image)
	n += int64(m)
	if err != nil {
		return n, fmt.Errorf("unable to write the firmware image: %w", err)
	}
	return n, nil
}
