package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "thumbscope",
		Short: "Score YouTube thumbnails for click-worthiness",
	}

	root.AddCommand(serveCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(versionCmd())

	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP analysis server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func analyzeCmd() *cobra.Command {
	var (
		title       string
		description string
		mode        string
	)

	cmd := &cobra.Command{
		Use:   "analyze <image-file>",
		Short: "Score a single thumbnail and print the report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(args[0], title, description, mode)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "video title")
	cmd.Flags().StringVar(&description, "description", "", "video description")
	cmd.Flags().StringVar(&mode, "mode", "quick", "analysis mode: quick or deep")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("thumbscope " + version)
		},
	}
}
