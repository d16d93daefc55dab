// parapipe runs N independent copies of a command pipeline concurrently,
// feeding them from a shared input and multiplexing their output.
package main

import (
	"fmt"
	"os"

	"github.com/internetarchive/parapipe/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "parapipe:", err)
		os.Exit(1)
	}
}
