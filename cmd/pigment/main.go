package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗╦╔═╗╔╦╗╔═╗╔╗╔╔╦╗
  ╠═╝║║ ╦║║║║╣ ║║║ ║
  ╩  ╩╚═╝╩ ╩╚═╝╝╚╝ ╩
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "pigment",
		Short: "Tooling for Pigment marketing sites",
		Long: `Pigment decorates authored HTML into the live marketing site:
blocks, components, stores, and cross-tab state.

This CLI wraps the development workflow around that runtime:

  • Local preview with full block decoration
  • Live reload when authored files change
  • Cross-process store sync over WebSocket
  • Palette file validation`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		previewCmd(),
		paletteCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the Pigment ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
