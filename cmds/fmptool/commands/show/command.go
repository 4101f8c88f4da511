// Copyright 2017-2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package show

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/fmppayload/cmds/fmptool/commands"
	"github.com/linuxboot/fmppayload/pkg/fmp"
)

var _ commands.Command = (*Command)(nil)

// Command prints the FMP payload header and its dependency list.
type Command struct {
	PayloadPath string `short:"f" long:"file" description:"path to the FMP payload" required:"true"`
	Format      string `long:"format" description:"output format [text, json]" default:"text"`

	stdout io.Writer
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the FMP payload header"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return "Prints the versions declared by the FMP payload header and the list of dependencies following it."
}

type output struct {
	Header       fmp.PayloadHeader
	ImageSize    int
	Dependencies []fmp.Dependency
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	format := commands.ParseFormat(cmd.Format)
	if format == commands.FormatUndefined {
		return commands.ErrArgs{Err: fmt.Errorf("unknown format '%s'", cmd.Format)}
	}
	stdout := cmd.stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	payload, err := commands.ReadPayload(cmd.PayloadPath)
	if err != nil {
		return err
	}
	// A payload without dependencies and image is valid to show.
	hdr, err := fmp.ReadHeader(payload)
	if err != nil {
		return fmt.Errorf("unable to parse the FMP payload header: %w", err)
	}
	image, err := hdr.Image(payload)
	if err != nil {
		return err
	}
	deps, err := fmp.Dependencies(payload)
	if err != nil {
		return fmt.Errorf("unable to parse the dependency list: %w", err)
	}

	switch format {
	case commands.FormatJSON:
		b, err := json.MarshalIndent(output{Header: *hdr, ImageSize: len(image), Dependencies: deps}, "", "    ")
		if err != nil {
			return fmt.Errorf("cannot marshal JSON: %w", err)
		}
		fmt.Fprintln(stdout, string(b))
	default:
		fmt.Fprint(stdout, hdr.Summary())
		fmt.Fprintf(stdout, "Image Size               : %#x %d (%s)\n", len(image), len(image), humanize.IBytes(uint64(len(image))))
		if len(deps) > 0 {
			RenderDependencies(stdout, deps)
		}
	}
	return nil
}

// RenderDependencies prints the dependency list as an ASCII table.
func RenderDependencies(w io.Writer, deps []fmp.Dependency) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Dependencies")
	t.AppendHeader(table.Row{"#", "Component", "Image Index", "Required Version", "Flags"})
	for idx, dep := range deps {
		t.AppendRow(table.Row{
			idx,
			dep.Component,
			dep.ImageIndex,
			fmt.Sprintf("%#x", dep.RequiredVersionInSystem),
			dep.Flags,
		})
	}
	t.Render()
}
