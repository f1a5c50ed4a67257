// Command modelbridge is a small CLI over the bridge: one-shot prompts with
// optional structured output, and an interactive chat loop.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
