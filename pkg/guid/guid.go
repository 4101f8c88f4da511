// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package guid implements the mixed-endian GUID as implemented by Microsoft.
// FMP instances and their dependencies are identified by such GUIDs.
package guid

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// Size represents number of bytes in a GUID
	Size = 16
	// UExample is a example of a string GUID
	UExample  = "01234567-89AB-CDEF-0123-456789ABCDEF"
	strFormat = "%02X%02X%02X%02X-%02X%02X-%02X%02X-%02X%02X-%02X%02X%02X%02X%02X%02X"
)

var (
	fields = [...]int{4, 2, 2, 1, 1, 1, 1, 1, 1, 1, 1}
)

// GUID represents a unique identifier, stored in its on-disk byte order.
type GUID [Size]byte

func reverse(b []byte) {
	for i := 0; i < len(b)/2; i++ {
		other := len(b) - i - 1
		b[other], b[i] = b[i], b[other]
	}
}

// Parse parses a guid string.
func Parse(s string) (*GUID, error) {
	// remove all hyphens to make it easier to parse.
	stripped := strings.Replace(s, "-", "", -1)
	decoded, err := hex.DecodeString(stripped)
	if err != nil {
		return nil, fmt.Errorf("guid string not correct, need string of the format %v, got %q",
			UExample, s)
	}

	if len(decoded) != Size {
		return nil, fmt.Errorf("guid string has incorrect length, need string of the format %v, got %q",
			UExample, s)
	}

	u := GUID{}
	i := 0
	copy(u[:], decoded[:])
	// Correct for endianness.
	for _, fieldlen := range fields {
		reverse(u[i : i+fieldlen])
		i += fieldlen
	}
	return &u, nil
}

// MustParse parses a guid string or panics.
func MustParse(s string) *GUID {
	guid, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return guid
}

// Decode copies a GUID out of its 16-byte on-disk representation.
func Decode(b []byte) (GUID, error) {
	var u GUID
	if len(b) < Size {
		return u, fmt.Errorf("short GUID buffer length %d; want %d", len(b), Size)
	}
	copy(u[:], b[:Size])
	return u, nil
}

// IsZero reports whether all bytes of the GUID are zero.
func (u GUID) IsZero() bool {
	return u == GUID{}
}

func (u GUID) String() string {
	// Not a pointer receiver so we don't have to manually copy.
	i := 0
	// reverse endianness.
	for _, fieldlen := range fields {
		reverse(u[i : i+fieldlen])
		i += fieldlen
	}
	// Convert to []interface{} for easy printing.
	b := make([]interface{}, Size)
	for i := range u[:] {
		b[i] = u[i]
	}
	return fmt.Sprintf(strFormat, b...)
}

// MarshalText implements encoding.TextMarshaler, so GUIDs show up as
// strings in JSON output.
func (u GUID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *GUID) UnmarshalText(b []byte) error {
	g, err := Parse(string(b))
	if err != nil {
		return err
	}
	*u = *g
	return nil
}
