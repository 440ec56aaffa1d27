package main

import (
	"os"

	"github.com/pterm/pterm"

	"github.com/teranos/qlint/cmd/qlint/commands"
	"github.com/teranos/qlint/errors"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		pterm.Error.Println(err.Error())
		for _, hint := range errors.GetAllHints(err) {
			pterm.Info.Println(hint)
		}
		os.Exit(1)
	}
}
