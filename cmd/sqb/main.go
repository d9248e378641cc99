package main

import (
	"fmt"
	"os"

	"github.com/teranos/sqb/cmd/sqb/commands"
	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/logger"
)

func main() {
	defer logger.Cleanup()

	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}
