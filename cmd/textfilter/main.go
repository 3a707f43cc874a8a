// textfilter replaces every byte that is not an ASCII letter, space or
// newline with a space.
package main

import (
	"os"

	"github.com/hupe1980/textfilter/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
