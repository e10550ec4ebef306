//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binaryName = "quicktrans"

// Default target to run when none is specified
var Default = Build

// Build builds the quicktrans binary
func Build() error {
	fmt.Println("Building", binaryName)
	return sh.RunV("go", "build", "-o", binaryName, "./cmd/quicktrans")
}

// Install installs quicktrans into GOPATH/bin
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	dest := filepath.Join(gopath, "bin", binaryName)
	fmt.Println("Installing to", dest)
	return sh.Copy(dest, binaryName)
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs all tests with the race detector
func Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and the tests
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Clean removes the built binary
func Clean() error {
	fmt.Println("Cleaning...")
	return os.RemoveAll(binaryName)
}
