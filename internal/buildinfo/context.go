// Package buildinfo carries build-time metadata, kept apart from user configuration
package buildinfo

import "fmt"

// UnknownValue stands in for metadata the build did not inject
const UnknownValue = "unknown"

// Context holds values injected with -ldflags at build time
type Context struct {
	version   string
	buildDate string
}

// NewContext creates build metadata; empty values read as UnknownValue
func NewContext(version, buildDate string) *Context {
	return &Context{version: version, buildDate: buildDate}
}

// Version returns the build version
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns the build date
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// String is what `scanctl --version` prints
func (c *Context) String() string {
	return fmt.Sprintf("%s (built %s)", c.Version(), c.BuildDate())
}
