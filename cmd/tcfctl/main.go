package main

import (
	"fmt"
	"os"

	"github.com/zaqqye/tg_contact_form/cmd/tcfctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
