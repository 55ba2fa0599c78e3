package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pigmentlabs/pigment/internal/config"
)

func paletteCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "palette [file]",
		Short: "Validate and display a palette file",
		Long: `Validate a palette YAML file and display its colors.

A palette file lists the colors the color wall offers:

  colors:
    - hex: "#C8553D"
      name: Terracotta
    - hex: "#588B8B"
      name: Juniper

Examples:
  pigment palette palette.yaml
  pigment palette --check palette.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPalette(args[0], check)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Validate only, print nothing but errors")

	return cmd
}

func runPalette(path string, check bool) error {
	entries, err := config.LoadPalette(path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s has no colors", path)
	}

	if check {
		success("%s: %d colors", path, len(entries))
		return nil
	}

	fmt.Println()
	unnamed := 0
	for _, entry := range entries {
		fmt.Printf("  %s %-8s %s\n", swatchBlock(entry.Hex), entry.Hex, entry.Name)
		if entry.Name == "" {
			unnamed++
		}
	}
	fmt.Println()
	success("%d colors", len(entries))
	if unnamed > 0 {
		warn("%d colors have no name; swatches fall back to the hex code", unnamed)
	}
	return nil
}

// swatchBlock renders hex as a colored terminal block, or a plain block
// when the code will not parse.
func swatchBlock(hex string) string {
	r, g, b, ok := splitHex(hex)
	if !ok {
		return "██"
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm██\033[0m", r, g, b)
}

// splitHex decodes #RGB or #RRGGBB into components.
func splitHex(hex string) (r, g, b uint8, ok bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(n >> 16), uint8(n >> 8), uint8(n), true
}
