package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/plankit-xyz/go-plankit/parser"
)

func info(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	outputJSON := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: planc info <problem.json> [options]

Display a problem's shape: symbol counts, action counts, and the feature
flags that determine which compilation passes apply.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("problem file required")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read problem: %w", err)
	}
	p, err := parser.ProblemFromJSON(data)
	if err != nil {
		return fmt.Errorf("parse problem: %w", err)
	}

	features := make([]string, 0)
	for _, f := range p.Kind().Features() {
		features = append(features, string(f))
	}

	if *outputJSON {
		out, err := json.MarshalIndent(map[string]interface{}{
			"name":        p.Name(),
			"types":       len(p.UserTypes()),
			"objects":     len(p.Objects()),
			"fluents":     len(p.Fluents()),
			"actions":     len(p.Actions()),
			"goals":       len(p.Goals()),
			"constraints": len(p.Constraints()),
			"metrics":     len(p.Metrics()),
			"features":    features,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Problem: %s\n", p.Name())
	fmt.Printf("  Types:       %d\n", len(p.UserTypes()))
	fmt.Printf("  Objects:     %d\n", len(p.Objects()))
	fmt.Printf("  Fluents:     %d\n", len(p.Fluents()))
	fmt.Printf("  Actions:     %d\n", len(p.Actions()))
	fmt.Printf("  Goals:       %d\n", len(p.Goals()))
	fmt.Printf("  Constraints: %d\n", len(p.Constraints()))
	fmt.Printf("  Metrics:     %d\n", len(p.Metrics()))
	fmt.Println("  Features:")
	for _, f := range features {
		fmt.Printf("    %s\n", f)
	}
	return nil
}
