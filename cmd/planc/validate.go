package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/plankit-xyz/go-plankit/parser"
	"github.com/plankit-xyz/go-plankit/validation"
)

func validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	outputJSON := fs.Bool("json", false, "Output the result as JSON")
	outputFile := fs.String("output", "", "Write the JSON result to file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: planc validate <problem.json> <plan.json> [options]

Simulate the plan step by step against the problem: check every
precondition, detect conflicting simultaneous effects, check the goal in
the final state, and monitor trajectory constraints over the whole trace.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  planc validate problem.json plan.json
  planc validate problem.json plan.json --json --output report.json
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("problem and plan files required")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read problem: %w", err)
	}
	p, err := parser.ProblemFromJSON(data)
	if err != nil {
		return fmt.Errorf("parse problem: %w", err)
	}
	planData, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("read plan: %w", err)
	}
	plan, err := parser.PlanFromJSON(p, planData)
	if err != nil {
		return fmt.Errorf("parse plan: %w", err)
	}

	result, err := validation.NewValidator(p).Validate(plan)
	if err != nil {
		return err
	}

	if *outputJSON || *outputFile != "" {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		if *outputFile != "" {
			if err := os.WriteFile(*outputFile, out, 0644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		if *outputJSON {
			fmt.Println(string(out))
		}
	} else {
		if result.Valid {
			fmt.Printf("Plan valid: %d steps\n", result.Steps)
		} else {
			fmt.Printf("Plan INVALID: %d steps, %d issues\n", result.Steps, len(result.Errors))
			for _, issue := range result.Errors {
				fmt.Printf("  [%s] step %d: %s\n", issue.Category, issue.Step, issue.Message)
			}
		}
	}

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}
