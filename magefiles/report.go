//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Report builds the CLI and produces the venue citation report using the
// local venuelens.yaml configuration.
func Report() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName))
}

// Test runs the full test suite.
func Test() error {
	return sh.RunV("go", "test", "./...")
}
