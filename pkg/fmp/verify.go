// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmp

import (
	"fmt"

	"github.com/linuxboot/fmppayload/pkg/guid"
	"github.com/linuxboot/fmppayload/pkg/log"
)

// Descriptor is the image descriptor of a firmware component present in the
// system.
type Descriptor interface {
	// Version returns the version of the component currently in the system.
	Version() uint32

	// Release frees the descriptor. It is called exactly once per
	// descriptor, right after the version has been read.
	Release()
}

// Resolver looks up firmware components present in the system.
//
// Any error is treated as "component not present"; the resolver is not
// expected to tell absent components from unreadable ones.
type Resolver interface {
	ResolveComponent(component guid.GUID, imageIndex uint8) (Descriptor, error)
}

// Status is the outcome of evaluating a single dependency.
type Status uint8

// Dependency statuses.
const (
	// StatusSatisfied means the component is present in a suitable version.
	StatusSatisfied Status = iota
	// StatusNotPresent means an optional component is not in the system,
	// which satisfies the dependency.
	StatusNotPresent
	// StatusMissing means a required component is not in the system.
	StatusMissing
	// StatusVersionTooLow means the system version is older than required.
	StatusVersionTooLow
	// StatusVersionMismatch means an exact match was requested and the
	// system version differs.
	StatusVersionMismatch
)

func (s Status) String() string {
	switch s {
	case StatusSatisfied:
		return "satisfied"
	case StatusNotPresent:
		return "not present (optional)"
	case StatusMissing:
		return "missing"
	case StatusVersionTooLow:
		return "version too low"
	case StatusVersionMismatch:
		return "version mismatch"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Satisfied returns true if the status does not block the update.
func (s Status) Satisfied() bool {
	return s == StatusSatisfied || s == StatusNotPresent
}

// DependencyResult records how one dependency was evaluated.
type DependencyResult struct {
	Index      int
	Dependency Dependency
	Status     Status

	// UnknownFlags are the flag bits of the dependency this header version
	// does not define. They do not affect the verdict.
	UnknownFlags DependencyFlags `json:",omitempty"`

	// SystemVersion is only meaningful if the component was resolved.
	SystemVersion uint32
	Resolved      bool

	// ResolveErr is the resolver error for components not in the system.
	ResolveErr error `json:"-"`
}

// Evaluation is the result of evaluating a dependency list.
type Evaluation struct {
	Header PayloadHeader

	// Satisfied is the verdict over all dependencies.
	Satisfied bool

	// Results holds the dependencies that were evaluated, in order. The
	// walk stops at the first unsatisfied dependency, so later entries are
	// absent.
	Results []DependencyResult

	// Count is the number of dependencies declared by the header.
	Count int
}

// Failed returns the dependency that blocked the update, if any.
func (e *Evaluation) Failed() *DependencyResult {
	if e == nil || len(e.Results) == 0 {
		return nil
	}
	last := &e.Results[len(e.Results)-1]
	if last.Status.Satisfied() {
		return nil
	}
	return last
}

// VerifyDependencies evaluates all dependencies listed in the FMP payload
// header and returns true if all of them are met.
//
// A structurally invalid header yields false and an error wrapping
// ErrInvalidParameter. An unmet dependency yields false and no error.
func VerifyDependencies(payload []byte, r Resolver) (bool, error) {
	e, err := Evaluate(payload, r)
	if err != nil {
		return false, err
	}
	return e.Satisfied, nil
}

// Evaluate is like VerifyDependencies, but also reports the outcome of each
// dependency that was evaluated.
func Evaluate(payload []byte, r Resolver) (*Evaluation, error) {
	if r == nil {
		return nil, invalidf("no component resolver")
	}
	hdr, err := payloadHeader(payload)
	if err != nil {
		return nil, err
	}
	e := &Evaluation{Header: hdr}

	depBytes, err := hdr.DependencyBytes()
	if err != nil {
		return nil, err
	}
	log.Infof("%d bytes of dependencies", depBytes)
	if depBytes == 0 {
		e.Satisfied = true
		return e, nil
	}

	start, end, err := dependencyRegion(hdr, payload)
	if err != nil {
		log.Errorf("dependency section of the header is invalid: %v", err)
		return nil, err
	}
	e.Count = int((end - start) / DependencySize)
	log.Infof("processing %d dependencies", e.Count)

	for idx, off := 0, start; off < end; idx, off = idx+1, off+DependencySize {
		dep, err := ParseDependency(payload[off : off+DependencySize])
		if err != nil {
			return nil, err
		}
		result := evaluateDependency(idx, dep, r)
		e.Results = append(e.Results, result)
		if !result.Status.Satisfied() {
			return e, nil
		}
	}

	e.Satisfied = true
	return e, nil
}

// evaluateDependency resolves the component of dep and applies the version
// policy. The descriptor is released before returning on every path.
func evaluateDependency(idx int, dep Dependency, r Resolver) DependencyResult {
	result := DependencyResult{Index: idx, Dependency: dep}

	if unknown := dep.Flags.Unknown(); unknown != 0 {
		result.UnknownFlags = unknown
		log.Warnf("unknown dependency flags %#04x for FMP %v (flags %#04x)", uint16(unknown), dep.Component, uint16(dep.Flags))
	}

	desc, err := r.ResolveComponent(dep.Component, dep.ImageIndex)
	if err == nil && desc == nil {
		err = ErrNilDescriptor
	}
	if err != nil {
		result.ResolveErr = err
		if dep.Flags.IsRequired() {
			log.Errorf("dependency for FMP %v[%d] failed, component is required: %v", dep.Component, dep.ImageIndex, err)
			result.Status = StatusMissing
			return result
		}
		log.Warnf("cannot resolve FMP %v[%d] for optional dependency: %v", dep.Component, dep.ImageIndex, err)
		result.Status = StatusNotPresent
		return result
	}
	defer desc.Release()

	current := desc.Version()
	result.Resolved = true
	result.SystemVersion = current

	switch {
	case dep.RequiredVersionInSystem > current:
		log.Errorf("dependency for FMP %v failed, version on system (%#x) is older than required (%#x)",
			dep.Component, current, dep.RequiredVersionInSystem)
		result.Status = StatusVersionTooLow
	case dep.Flags.IsExactMatch() && dep.RequiredVersionInSystem != current:
		log.Errorf("dependency for FMP %v failed, version on system (%#x) is not the exact required (%#x)",
			dep.Component, current, dep.RequiredVersionInSystem)
		result.Status = StatusVersionMismatch
	default:
		log.Infof("dependency for FMP %v passed, version on system (%#x) meets the required (%#x)",
			dep.Component, current, dep.RequiredVersionInSystem)
		result.Status = StatusSatisfied
	}
	return result
}
