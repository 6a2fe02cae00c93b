package main

import (
	"fmt"
	"os"

	"github.com/digitorus/sigplace/cli"
)

func main() {
	if len(os.Args) < 2 {
		cli.Usage()
	}

	switch os.Args[1] {
	case "info":
		cli.InfoCommand()
	case "place":
		cli.PlaceCommand()
	case "session":
		cli.SessionCommand()
	case "-h", "--help", "help":
		cli.Usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		cli.Usage()
	}
}
