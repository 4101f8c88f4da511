// Copyright 2017-2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package create

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/linuxboot/fmppayload/cmds/fmptool/commands"
	"github.com/linuxboot/fmppayload/pkg/fmp"
	"github.com/linuxboot/fmppayload/pkg/fmp/inventory"
)

var _ commands.Command = (*Command)(nil)

// Command assembles an FMP payload.
type Command struct {
	OutputPath             string   `short:"o" long:"output" description:"path to the payload to write (.xz/.zst are compressed)" required:"true"`
	FirmwareVersion        uint32   `long:"fw-version" description:"the value for field 'FwVersion'" base:"0" required:"true"`
	LowestSupportedVersion uint32   `long:"lsv" description:"the value for field 'LowestSupportedVersion'" base:"0"`
	Dependencies           []string `short:"d" long:"dependency" description:"GUID[:index]=version[/flags], flags are a comma separated list of 'required', 'exact' or numbers (repeatable)"`
	ImagePath              string   `short:"i" long:"image" description:"path to the firmware image following the header"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "creates an FMP payload"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return ""
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	p := fmp.Payload{
		FirmwareVersion:        cmd.FirmwareVersion,
		LowestSupportedVersion: cmd.LowestSupportedVersion,
	}
	for _, s := range cmd.Dependencies {
		dep, err := ParseDependency(s)
		if err != nil {
			return commands.ErrArgs{Err: err}
		}
		p.Dependencies = append(p.Dependencies, dep)
	}
	if cmd.ImagePath != "" {
		image, err := os.ReadFile(cmd.ImagePath)
		if err != nil {
			return fmt.Errorf("unable to read the firmware image '%s': %w", cmd.ImagePath, err)
		}
		p.Image = image
	}

	b, err := p.Bytes()
	if err != nil {
		return fmt.Errorf("unable to assemble the payload: %w", err)
	}
	return commands.WritePayload(cmd.OutputPath, b)
}

// ParseDependency parses "GUID[:index]=version[/flags]".
func ParseDependency(s string) (fmp.Dependency, error) {
	var dep fmp.Dependency
	component, flagsStr, hasFlags := strings.Cut(s, "/")
	c, err := inventory.ParseComponent(component)
	if err != nil {
		return dep, err
	}
	dep.Component = c.Component
	dep.ImageIndex = c.ImageIndex
	dep.RequiredVersionInSystem = c.Version
	if !hasFlags {
		return dep, nil
	}
	for _, f := range strings.Split(flagsStr, ",") {
		switch f = strings.TrimSpace(strings.ToLower(f)); f {
		case "":
		case "required":
			dep.Flags |= fmp.DependencyFlagRequired
		case "exact":
			dep.Flags |= fmp.DependencyFlagMatchExactVersion
		default:
			v, err := strconv.ParseUint(f, 0, 16)
			if err != nil {
				return dep, fmt.Errorf("unknown dependency flag %q in %q", f, s)
			}
			dep.Flags |= fmp.DependencyFlags(v)
		}
	}
	return dep, nil
}
