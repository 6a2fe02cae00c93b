package cli

import (
	"fmt"
	"os"
)

var osExit = os.Exit

func Usage() {
	fmt.Printf("Usage: %s <command> [options] <args>\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  info     Show page geometry of a document")
	fmt.Println("  place    Place a signature image on a page")
	fmt.Println("  session  Run an editing session driven by stdin")
	fmt.Println("")
	fmt.Printf("Use '%s <command> -h' for command-specific help\n", os.Args[0])
	osExit(1)
}
