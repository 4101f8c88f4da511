// Copyright 2017-2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/fmppayload/pkg/compression"
)

// Command is an interface of implementations of verbs
// (like "show", "verify" etc of "fmptool show"/"fmptool verify")
type Command interface {
	flags.Commander

	// ShortDescription explains what this command does in one line
	ShortDescription() string

	// LongDescription explains what this verb does (without limitation in amount of lines)
	LongDescription() string
}

// Format is an output format of a command.
type Format int

// Output formats.
const (
	FormatUndefined = Format(iota)
	FormatText
	FormatJSON
)

// ParseFormat parses an output format name.
func ParseFormat(s string) Format {
	switch strings.Trim(strings.ToLower(s), " ") {
	case "", "text":
		return FormatText
	case "json":
		return FormatJSON
	}
	return FormatUndefined
}

// ReadPayload reads an FMP payload file, decompressing it if it is stored
// as .xz or .zst.
func ReadPayload(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read the payload file '%s': %w", path, err)
	}
	data, err = compression.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decompress the payload file '%s': %w", path, err)
	}
	return data, nil
}

// WritePayload writes an FMP payload file, compressing it if the file name
// ends with .xz or .zst.
func WritePayload(path string, data []byte) error {
	if c := compression.CompressorFromPath(path); c != nil {
		var err error
		data, err = c.Encode(data)
		if err != nil {
			return fmt.Errorf("unable to compress the payload with %s: %w", c.Name(), err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write the payload file '%s': %w", path, err)
	}
	return nil
}
