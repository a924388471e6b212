package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "compile":
		if err := compile(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "validate":
		if err := validate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "info":
		if err := info(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "runs":
		if err := runs(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("planc version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`planc - planning problem compiler

Usage:
  planc <command> [options]

Commands:
  compile    Compile a problem through a chain of passes
  validate   Validate a plan against a problem
  info       Display a problem's shape and feature flags
  runs       List or show recorded compilation runs
  help       Show this help message
  version    Show version information

Examples:
  # Compile with an automatically selected pass chain
  planc compile problem.json --output compiled.json

  # Compile with explicit passes
  planc compile problem.json --passes grounder,negative_conditions_remover

  # Validate a plan
  planc validate problem.json plan.json

  # Record a run and inspect it later
  planc compile problem.json --store runs.db
  planc runs list --store runs.db

For command-specific help, run:
  planc <command> --help`)
}
