// ninepd serves a 9P2000 filesystem backed by memory, disk, or an LLM
// conversation, depending on the storage the operator chooses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ninepd",
	Short: "ninepd serves a 9P2000 filesystem over TCP",
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
