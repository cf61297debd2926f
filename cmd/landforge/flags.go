package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
)

// regionValue is a pflag.Value that only accepts known releases.
type regionValue struct {
	region rom.Region
}

var _ pflag.Value = (*regionValue)(nil)

func (r *regionValue) String() string {
	return string(r.region)
}

func (r *regionValue) Set(s string) error {
	v, err := rom.ParseRegion(s)
	if err != nil {
		return err
	}
	r.region = v
	return nil
}

func (r *regionValue) Type() string {
	return "region"
}

var compressionNames = []string{"none", "gzip", "bzip2", "lz4", "zstd"}

// compressionValue selects the backup compression.
type compressionValue struct {
	name string
}

var _ pflag.Value = (*compressionValue)(nil)

func (c *compressionValue) String() string {
	return c.name
}

func (c *compressionValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, n := range compressionNames {
		if s == n {
			c.name = s
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(compressionNames, ", "))
}

func (c *compressionValue) Type() string {
	return "compression"
}

// apply overrides the configured backup compression when the flag was set.
func (c *compressionValue) apply() {
	if c.name != "" {
		cfg.Backup.Compression = c.name
	}
}
