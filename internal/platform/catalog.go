package platform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrUnknownPlatform is returned when a requested platform name is not in the catalog.
var ErrUnknownPlatform = errors.New("unknown platform")

// Catalog is an immutable set of platform descriptors.
// Builds receive deep copies of its entries, so a catalog can be shared
// between concurrent builds.
type Catalog struct {
	descriptors map[string]*Descriptor
	names       []string
}

// NewCatalog builds a catalog from the given descriptors and parses every
// range constraint. Descriptor order is preserved by Names.
func NewCatalog(descriptors ...*Descriptor) (*Catalog, error) {
	c := &Catalog{
		descriptors: make(map[string]*Descriptor, len(descriptors)),
		names:       make([]string, 0, len(descriptors)),
	}

	for _, d := range descriptors {
		if _, ok := c.descriptors[d.Name]; ok {
			return nil, fmt.Errorf("duplicate platform %q", d.Name)
		}

		entry := d.clone()
		for i := range entry.Ranges {
			constraint, err := semver.NewConstraint(entry.Ranges[i].Range)
			if err != nil {
				return nil, fmt.Errorf("parse range %q of platform %q: %w", entry.Ranges[i].Range, d.Name, err)
			}

			entry.Ranges[i].constraint = constraint
		}

		c.descriptors[d.Name] = entry
		c.names = append(c.names, d.Name)
	}

	return c, nil
}

// Default returns the built-in nw.js platform catalog.
func Default() *Catalog {
	c, err := NewCatalog(builtin()...)
	if err != nil {
		// The built-in descriptors are compile-time constants.
		panic(err)
	}

	return c
}

// Names lists the catalog's platform names in declaration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Select returns fresh build states for the named platforms.
// Duplicate names collapse to one state, and every descriptor is a deep
// copy, so later stages cannot corrupt the catalog or add platforms back.
func (c *Catalog) Select(names []string) ([]*BuildState, error) {
	states := make([]*BuildState, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}

		seen[name] = true

		d, ok := c.descriptors[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (known platforms: %s)",
				ErrUnknownPlatform, name, strings.Join(c.names, ", "))
		}

		states = append(states, &BuildState{Descriptor: d.clone()})
	}

	return states, nil
}

// builtin lists the platforms of the official nw.js distribution.
// Version 0.12.0 renamed the project from node-webkit to nw.js, which
// changed both artifact names and shipped file names, hence the two
// ranges per platform.
func builtin() []*Descriptor {
	return []*Descriptor{
		{
			Name:  "win",
			Shape: ShapeFlat,
			Ranges: []RangeEntry{
				{
					Range: "< 0.12.0",
					Files: []string{
						"node-webkit.exe",
						"nw.pak",
						"icudtl.dat",
						"ffmpegsumo.dll",
						"libEGL.dll",
						"libGLESv2.dll",
						"locales",
					},
					Archive: "node-webkit-v{version}-win-ia32.zip",
				},
				{
					Range: ">= 0.12.0, < 0.13.0",
					Files: []string{
						"nw.exe",
						"nw.pak",
						"icudtl.dat",
						"ffmpegsumo.dll",
						"libEGL.dll",
						"libGLESv2.dll",
						"d3dcompiler_47.dll",
						"locales",
					},
					Archive: "nwjs-v{version}-win-ia32.zip",
				},
			},
			Runnable:  "{root}",
			Ext:       ".exe",
			Payload:   "package.nw",
			AlwaysZip: true,
		},
		{
			Name:  "osx",
			Shape: ShapeBundle,
			Ranges: []RangeEntry{
				{
					Range:   "< 0.12.0",
					Files:   []string{"node-webkit.app"},
					Archive: "node-webkit-v{version}-osx-ia32.zip",
				},
				{
					Range:   ">= 0.12.0, < 0.13.0",
					Files:   []string{"nwjs.app"},
					Archive: "nwjs-v{version}-osx-ia32.zip",
				},
			},
			Runnable: "{root}/Contents/MacOS/{stem}",
			Ext:      ".app",
		},
		{
			Name:  "linux32",
			Shape: ShapeFlat,
			Ranges: []RangeEntry{
				{
					Range: "< 0.12.0",
					Files: []string{
						"nw",
						"nw.pak",
						"icudtl.dat",
						"libffmpegsumo.so",
					},
					Archive: "node-webkit-v{version}-linux-ia32.tar.gz",
				},
				{
					Range: ">= 0.12.0, < 0.13.0",
					Files: []string{
						"nw",
						"nw.pak",
						"icudtl.dat",
						"libffmpegsumo.so",
						"locales",
					},
					Archive: "nwjs-v{version}-linux-ia32.tar.gz",
				},
			},
			Runnable:  "{root}",
			Payload:   "package.nw",
			AlwaysZip: true,
		},
		{
			Name:  "linux64",
			Shape: ShapeFlat,
			Ranges: []RangeEntry{
				{
					Range: "< 0.12.0",
					Files: []string{
						"nw",
						"nw.pak",
						"icudtl.dat",
						"libffmpegsumo.so",
					},
					Archive: "node-webkit-v{version}-linux-x64.tar.gz",
				},
				{
					Range: ">= 0.12.0, < 0.13.0",
					Files: []string{
						"nw",
						"nw.pak",
						"icudtl.dat",
						"libffmpegsumo.so",
						"locales",
					},
					Archive: "nwjs-v{version}-linux-x64.tar.gz",
				},
			},
			Runnable:  "{root}",
			Payload:   "package.nw",
			AlwaysZip: true,
		},
	}
}
