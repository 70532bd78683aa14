package main

import (
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
)

// writeOutput writes v to ctx.Stdout in the selected format.
func writeOutput(ctx *Context, v any) error {
	switch ctx.Output {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		_, err = ctx.Stdout.Write(data)
		return err
	default:
		enc := json.NewEncoder(ctx.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}
}
