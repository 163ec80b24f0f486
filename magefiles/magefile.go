//go:build mage

// Package main contains Mage build targets for lawlinks developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "lawlinks"
	cmdPkg  = "./cmd/lawlinks"
)

// Default target when mage runs without arguments.
var Default = Build

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Fuzz runs each citation fuzz target for a short time.
func Fuzz() error {
	for _, target := range []string{"FuzzExtract", "FuzzExpandList", "FuzzTokenize"} {
		if err := sh.RunV("go", "test", "./pkg/citation", "-run", "^$", "-fuzz", "^"+target+"$", "-fuzztime", "30s"); err != nil {
			return fmt.Errorf("%s: %w", target, err)
		}
	}
	return nil
}

// Lint runs go vet.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs lint and tests.
func Check() {
	mg.SerialDeps(Lint, Test)
}

// Clean removes build output.
func Clean() error {
	fmt.Println("Removing", binDir)
	return sh.Rm(binDir)
}
