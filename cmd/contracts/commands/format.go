package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkFormat(format string, accepted ...string) error {
	for _, a := range accepted {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: expected %s", format, strings.Join(accepted, "|"))
}
