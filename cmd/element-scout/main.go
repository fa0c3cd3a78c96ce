package main

import (
	"element-scout/internal/bootstrap"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "element-scout",
		Short:         "Discover page elements and grade their selectors",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			bootstrap.NewApp().Run()
		},
	}
	cmd.AddCommand(consoleCmd(), scoreCmd())

	return cmd
}

func consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Launch the browser and start the interactive console",
		Run: func(cmd *cobra.Command, args []string) {
			bootstrap.NewApp().Run()
		},
	}
}
