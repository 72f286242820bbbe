package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(openSession).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
