// Command coursesync tracks a learner's progress through a quiz curriculum
// backed by a document store.
package main

import (
	"os"

	"github.com/roach88/coursesync/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	os.Exit(cli.GetExitCode(err))
}
