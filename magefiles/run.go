//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Imports the sample asset and prints the load summary.
func (Run) Importer() error {
	mg.Deps(Build.Module)
	fmt.Println("Run importer...")
	if _, err := executeCmd("go", withArgs("run", "main.go", "-asset", "assets/sample.gltf"), withStream()); err != nil {
		return err
	}
	return nil
}
