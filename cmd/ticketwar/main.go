// Command ticketwar plays, simulates and tests the seat reservation game.
package main

import (
	"os"

	"github.com/roach88/ticketwar/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
