// Copyright 2017-2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package check implements overflow-safe sanity checks of byte ranges
// computed from untrusted length fields.
package check

import (
	"math/bits"

	"github.com/hashicorp/go-multierror"
)

// AddOverflow returns a+b and reports whether the sum wrapped around.
func AddOverflow(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry != 0
}

// End returns offset+length or an *ErrOverflow.
func End(offset, length uint64) (uint64, error) {
	end, overflow := AddOverflow(offset, length)
	if overflow {
		return 0, &ErrOverflow{Offset: offset, Length: length}
	}
	return end, nil
}

func bounds(length, startIdx, endIdx uint64) error {
	var result *multierror.Error
	if endIdx < startIdx {
		result = multierror.Append(result, &ErrEndLessThanStart{StartIdx: startIdx, EndIdx: endIdx})
	}
	if endIdx > length {
		result = multierror.Append(result, &ErrEndGreaterThanLength{Length: length, EndIdx: endIdx})
	}

	return result.ErrorOrNil()
}

// BytesRange checks if starting index `startIdx`, ending index `endIdx` and
// a buffer of size `length` passes sanity checks:
// * startIdx <= endIdx
// * endIdx <= length
//
// All violations are reported at once.
func BytesRange(length, startIdx, endIdx uint64) error {
	return bounds(length, startIdx, endIdx)
}

// Region checks that `length` bytes starting at `offset` can be computed
// without overflow and fit into a buffer of size `bufLen`. It returns the
// end index on success.
func Region(bufLen, offset, length uint64) (uint64, error) {
	end, err := End(offset, length)
	if err != nil {
		return 0, err
	}
	if err := BytesRange(bufLen, offset, end); err != nil {
		return 0, err
	}
	return end, nil
}

// StrictlyWithin is like Region, but additionally requires the end index to
// be strictly less than `bufLen`, i.e. at least one byte must follow the
// region.
func StrictlyWithin(bufLen, offset, length uint64) (uint64, error) {
	end, err := End(offset, length)
	if err != nil {
		return 0, err
	}
	if end >= bufLen {
		return 0, &ErrNotWithin{Length: bufLen, EndIdx: end}
	}
	return end, nil
}
