// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmp

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is wrapped by every structural failure: absent input,
// a truncated buffer, size fields that overflow or disagree with the buffer,
// a bad signature, or a dependency list of the wrong size.
//
// A dependency that is not satisfied is not an error.
var ErrInvalidParameter = errors.New("invalid parameter")

// ErrNilDescriptor is reported for a resolver that returned neither a
// descriptor nor an error.
var ErrNilDescriptor = errors.New("resolver returned a nil descriptor")

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidParameter}, args...)...)
}
