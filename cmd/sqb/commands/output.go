package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/teranos/sqb/errors"
)

// writeJSON writes v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to format JSON")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeTable renders rows, the first being the header, with pterm
func writeTable(w io.Writer, rows [][]string) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(rows)).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
