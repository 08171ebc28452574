// The main package for the supplier-scraper executable.
package main

import (
	"github.com/restocompras/supplier-scraper/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
