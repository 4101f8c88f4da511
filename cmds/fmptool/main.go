// Copyright 2017-2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// fmptool inspects and assembles FMP payloads, the versioned header with a
// dependency list that prefixes a firmware update image in a capsule.
//
// Synopsis:
//
//	fmptool show -f PAYLOAD [--format=json]
//	fmptool verify -f PAYLOAD [-c GUID[:index]=version ...] [--format=json]
//	fmptool create -o PAYLOAD --fw-version N [--lsv N] [-d GUID[:index]=version[/flags] ...] [-i IMAGE]
//
// An example:
//
//	fmptool create -o update.bin.xz --fw-version 0x20001 --lsv 0x10000 \
//	    -d A0C1D8C8-2D6A-4C76-8E5D-000000000001=0x10/required,exact -i image.bin
//	fmptool verify -f update.bin.xz -c A0C1D8C8-2D6A-4C76-8E5D-000000000001=0x10
//
// Exit status of verify: 0 if all dependencies are met, 1 if one is not,
// 2 if the payload is malformed or the arguments are invalid.
package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/fmppayload/cmds/fmptool/commands"
	"github.com/linuxboot/fmppayload/cmds/fmptool/commands/create"
	"github.com/linuxboot/fmppayload/cmds/fmptool/commands/show"
	"github.com/linuxboot/fmppayload/cmds/fmptool/commands/verify"
	"github.com/linuxboot/fmppayload/pkg/log"
)

func knownCommands() map[string]commands.Command {
	return map[string]commands.Command{
		"show":   &show.Command{},
		"verify": &verify.Command{},
		"create": &create.Command{},
	}
}

type options struct {
	Verbose func() `short:"v" long:"verbose" description:"log informational messages"`
}

// exitCode maps the result of a command to the process exit status. The
// error itself was already printed by the flags parser.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, commands.ErrNotSatisfied) {
		return 1
	}
	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
		return 0
	}
	return 2
}

func newParser() *flags.Parser {
	opts := &options{
		Verbose: func() { log.Verbose = true },
	}
	flagsParser := flags.NewParser(opts, flags.Default)
	for commandName, command := range knownCommands() {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}
	return flagsParser
}

func main() {
	// parse arguments and execute the appropriate command
	_, err := newParser().Parse()
	os.Exit(exitCode(err))
}
