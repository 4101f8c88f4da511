// Copyright 2017-2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"fmt"
)

// ErrOverflow means `Offset + Length` does not fit into 64 bits.
type ErrOverflow struct {
	Offset uint64
	Length uint64
}

func (err *ErrOverflow) Error() string {
	return fmt.Sprintf("offset %#x plus length %#x overflows", err.Offset, err.Length)
}

// ErrEndLessThanStart means `endIdx` value is less than `startIdx` value
type ErrEndLessThanStart struct {
	StartIdx uint64
	EndIdx   uint64
}

func (err *ErrEndLessThanStart) Error() string {
	return fmt.Sprintf("end index is less than start index: %d < %d",
		err.EndIdx, err.StartIdx)
}

// ErrEndGreaterThanLength means `endIdx` is outside of a buffer of size `Length`.
type ErrEndGreaterThanLength struct {
	Length uint64
	EndIdx uint64
}

func (err *ErrEndGreaterThanLength) Error() string {
	return fmt.Sprintf("end index is outside of the bounds: %d > %d",
		err.EndIdx, err.Length)
}

// ErrNotWithin means `endIdx` does not lie strictly inside a buffer of size
// `Length`.
type ErrNotWithin struct {
	Length uint64
	EndIdx uint64
}

func (err *ErrNotWithin) Error() string {
	return fmt.Sprintf("end index is not strictly within the bounds: %d >= %d",
		err.EndIdx, err.Length)
}
