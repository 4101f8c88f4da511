// Copyright 2017-2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/fmppayload/cmds/fmptool/commands"
	"github.com/linuxboot/fmppayload/pkg/fmp"
	"github.com/linuxboot/fmppayload/pkg/fmp/inventory"
)

var _ commands.Command = (*Command)(nil)

// Command evaluates the dependencies of an FMP payload against the
// components given on the command line.
type Command struct {
	PayloadPath string   `short:"f" long:"file" description:"path to the FMP payload" required:"true"`
	Components  []string `short:"c" long:"component" description:"firmware component in the system, GUID[:index]=version (repeatable)"`
	Format      string   `long:"format" description:"output format [text, json]" default:"text"`

	stdout io.Writer
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "checks whether the payload dependencies are satisfied"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Evaluates every dependency of the FMP payload against the components
given with --component. The command fails with "dependencies are not
satisfied" if the payload may not be applied.`
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

	inv := inventory.New()
	for _, s := range cmd.Components {
		c, err := inventory.ParseComponent(s)
		if err != nil {
			return commands.ErrArgs{Err: err}
		}
		inv.Add(c.Component, c.ImageIndex, c.Version)
	}

	payload, err := commands.ReadPayload(cmd.PayloadPath)
	if err != nil {
		return err
	}
	e, err := fmp.Evaluate(payload, inv)
	if err != nil {
		return fmt.Errorf("unable to evaluate the dependencies: %w", err)
	}

	switch format {
	case commands.FormatJSON:
		b, err := json.MarshalIndent(e, "", "    ")
		if err != nil {
			return fmt.Errorf("cannot marshal JSON: %w", err)
		}
		fmt.Fprintln(stdout, string(b))
	default:
		renderEvaluation(stdout, e)
	}

	if !e.Satisfied {
		return commands.ErrNotSatisfied
	}
	return nil
}

func renderEvaluation(w io.Writer, e *fmp.Evaluation) {
	if len(e.Results) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("Dependencies (%d of %d evaluated)", len(e.Results), e.Count)
		t.AppendHeader(table.Row{"#", "Component", "Image Index", "Required", "System", "Flags", "Status"})
		for _, r := range e.Results {
			system := "-"
			if r.Resolved {
				system = fmt.Sprintf("%#x", r.SystemVersion)
			}
			t.AppendRow(table.Row{
				r.Index,
				r.Dependency.Component,
				r.Dependency.ImageIndex,
				fmt.Sprintf("%#x", r.Dependency.RequiredVersionInSystem),
				system,
				r.Dependency.Flags,
				r.Status,
			})
		}
		t.Render()
	}
	if e.Satisfied {
		fmt.Fprintln(w, "Verdict: satisfied")
		return
	}
	failed := e.Failed()
	fmt.Fprintf(w, "Verdict: not satisfied, dependency #%d on %v is %v\n",
		failed.Index, failed.Dependency.Component, failed.Status)
}
