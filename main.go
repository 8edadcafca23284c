package main

import (
	"os"

	"github.com/pmpmtj/Transcriber-Pipeline/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
