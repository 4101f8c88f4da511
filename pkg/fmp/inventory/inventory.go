// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inventory implements an in-memory fmp.Resolver over a fixed set of
// firmware components.
package inventory

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/linuxboot/fmppayload/pkg/fmp"
	"github.com/linuxboot/fmppayload/pkg/guid"
)

// ErrComponentNotFound means no component with the given GUID and image
// index is in the inventory.
type ErrComponentNotFound struct {
	Component  guid.GUID
	ImageIndex uint8
}

// Error implements error.
func (err ErrComponentNotFound) Error() string {
	return fmt.Sprintf("FMP %v image index %d is not found", err.Component, err.ImageIndex)
}

// Key identifies one image of a firmware component.
type Key struct {
	Component  guid.GUID
	ImageIndex uint8
}

func (k Key) String() string {
	return fmt.Sprintf("%v:%d", k.Component, k.ImageIndex)
}

// Component is a firmware component present in the system.
type Component struct {
	Key
	Version uint32
}

func (c Component) String() string {
	return fmt.Sprintf("%v=%#x", c.Key, c.Version)
}

// ParseComponent parses "GUID[:index]=version". The index defaults to 0
// and numbers accept the 0x prefix.
func ParseComponent(s string) (Component, error) {
	var c Component
	keyStr, versionStr, ok := strings.Cut(s, "=")
	if !ok {
		return c, fmt.Errorf("component %q is not of the form GUID[:index]=version", s)
	}
	key, err := ParseKey(keyStr)
	if err != nil {
		return c, err
	}
	version, err := strconv.ParseUint(strings.TrimSpace(versionStr), 0, 32)
	if err != nil {
		return c, fmt.Errorf("invalid version in component %q: %w", s, err)
	}
	c.Key = key
	c.Version = uint32(version)
	return c, nil
}

// ParseKey parses "GUID[:index]".
func ParseKey(s string) (Key, error) {
	var k Key
	guidStr, indexStr, hasIndex := strings.Cut(strings.TrimSpace(s), ":")
	g, err := guid.Parse(guidStr)
	if err != nil {
		return k, err
	}
	k.Component = *g
	if hasIndex {
		idx, err := strconv.ParseUint(indexStr, 0, 8)
		if err != nil {
			return k, fmt.Errorf("invalid image index %q: %w", indexStr, err)
		}
		k.ImageIndex = uint8(idx)
	}
	return k, nil
}

// Inventory is a set of firmware components. The zero value is an empty
// inventory ready to use.
type Inventory struct {
	components  map[Key]uint32
	outstanding int64
	resolved    int64
}

var _ fmp.Resolver = (*Inventory)(nil)

// New creates an inventory with the given components.
func New(components ...Component) *Inventory {
	inv := &Inventory{}
	for _, c := range components {
		inv.Add(c.Component, c.ImageIndex, c.Version)
	}
	return inv
}

// Add registers an image of a component, replacing a previous version.
func (inv *Inventory) Add(component guid.GUID, imageIndex uint8, version uint32) {
	if inv.components == nil {
		inv.components = make(map[Key]uint32)
	}
	inv.components[Key{Component: component, ImageIndex: imageIndex}] = version
}

// Components returns the registered components sorted by GUID and index.
func (inv *Inventory) Components() []Component {
	result := make([]Component, 0, len(inv.components))
	for k, v := range inv.components {
		result = append(result, Component{Key: k, Version: v})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Component != b.Component {
			return a.Component.String() < b.Component.String()
		}
		return a.ImageIndex < b.ImageIndex
	})
	return result
}

// ResolveComponent implements fmp.Resolver.
func (inv *Inventory) ResolveComponent(component guid.GUID, imageIndex uint8) (fmp.Descriptor, error) {
	version, ok := inv.components[Key{Component: component, ImageIndex: imageIndex}]
	if !ok {
		return nil, ErrComponentNotFound{Component: component, ImageIndex: imageIndex}
	}
	atomic.AddInt64(&inv.outstanding, 1)
	atomic.AddInt64(&inv.resolved, 1)
	return &Descriptor{version: version, inv: inv}, nil
}

// Outstanding returns the number of descriptors handed out and not yet
// released.
func (inv *Inventory) Outstanding() int {
	return int(atomic.LoadInt64(&inv.outstanding))
}

// Resolved returns the number of successful lookups.
func (inv *Inventory) Resolved() int {
	return int(atomic.LoadInt64(&inv.resolved))
}

// Descriptor is the fmp.Descriptor returned by an Inventory.
type Descriptor struct {
	version  uint32
	inv      *Inventory
	released int32
}

// Version implements fmp.Descriptor.
func (d *Descriptor) Version() uint32 {
	return d.version
}

// Release implements fmp.Descriptor. Releasing twice is a no-op.
func (d *Descriptor) Release() {
	if atomic.CompareAndSwapInt32(&d.released, 0, 1) {
		atomic.AddInt64(&d.inv.outstanding, -1)
	}
}
