package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/plankit-xyz/go-plankit/results"
)

func runs(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	storePath := fs.String("store", "plankit.db", "SQLite run store path")
	outputJSON := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: planc runs <list|show <id>> [options]

Inspect compilation runs recorded by planc compile --store.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  planc runs list --store runs.db
  planc runs show 6f1c... --store runs.db --json
`)
	}

	if len(args) < 1 {
		fs.Usage()
		return fmt.Errorf("subcommand required: list or show")
	}
	sub := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	store, err := results.NewSQLStore(*storePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	switch sub {
	case "list":
		all, err := store.List()
		if err != nil {
			return err
		}
		if *outputJSON {
			for _, run := range all {
				str, err := results.ToJSON(run)
				if err != nil {
					return err
				}
				fmt.Println(str)
			}
			return nil
		}
		if len(all) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}
		for _, run := range all {
			fmt.Printf("%s  %s  %-8s %s -> %s (%.3fs)\n",
				run.ID, run.Timestamp.Format("2006-01-02 15:04:05"), run.Status, run.Problem, run.Pipeline, run.ComputeTime)
		}
		return nil

	case "show":
		if fs.NArg() < 1 {
			return fmt.Errorf("run id required")
		}
		id := fs.Arg(0)
		run, err := store.Get(id)
		if err != nil {
			return err
		}
		str, err := results.ToJSON(run)
		if err != nil {
			return err
		}
		fmt.Println(str)
		return nil

	default:
		fs.Usage()
		return fmt.Errorf("unknown runs subcommand %q", sub)
	}
}
