package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/plankit-xyz/go-plankit/compiler"
	"github.com/plankit-xyz/go-plankit/parser"
	"github.com/plankit-xyz/go-plankit/problem"
	"github.com/plankit-xyz/go-plankit/results"
)

func compile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	passList := fs.String("passes", "", "Comma-separated pass names (default: select automatically)")
	outputFile := fs.String("output", "", "Write the compiled problem to file (default: stdout)")
	storePath := fs.String("store", "", "Record the run in a SQLite store at this path")
	runFile := fs.String("run-json", "", "Write the run record to a JSON file")
	showRun := fs.Bool("json", false, "Print the run record as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: planc compile <problem.json> [options]

Compile a planning problem through a chain of passes. Without --passes the
chain is selected from the problem's feature flags: every pass that removes
a feature the problem has is applied, in canonical order.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Known passes: %s

Examples:
  planc compile problem.json --output compiled.json
  planc compile problem.json --passes usertype_fluents_remover,grounder
  planc compile problem.json --store runs.db --json
`, passNames())
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

	pipeline, err := selectPipeline(p, *passList)
	if err != nil {
		return err
	}

	run := results.NewRun(p.Name(), pipeline.Name())
	start := time.Now()
	current := p
	for _, pass := range pipeline.Passes() {
		res, err := pass.Compile(current)
		if err != nil {
			run.Fail(err)
			run.ComputeTime = time.Since(start).Seconds()
			saveRun(run, *storePath, *runFile, *showRun)
			return fmt.Errorf("pass %s: %w", pass.Name(), err)
		}
		run.RecordPass(pass.Name(), current, res.Problem)
		current = res.Problem
	}
	run.ComputeTime = time.Since(start).Seconds()

	out, err := parser.ProblemToJSON(current)
	if err != nil {
		return fmt.Errorf("serialize compiled problem: %w", err)
	}
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, out, 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Compiled problem written to %s\n", *outputFile)
	} else if !*showRun {
		fmt.Println(string(out))
	}

	saveRun(run, *storePath, *runFile, *showRun)
	return nil
}

// selectPipeline builds the pass chain from an explicit list, or derives
// it from the problem's feature flags.
func selectPipeline(p *problem.Problem, passList string) (*compiler.Pipeline, error) {
	if passList != "" {
		var passes []compiler.Compiler
		for _, name := range strings.Split(passList, ",") {
			c, err := compiler.NewByName(strings.TrimSpace(name))
			if err != nil {
				return nil, err
			}
			passes = append(passes, c)
		}
		return compiler.NewPipeline(passes...), nil
	}
	kind := p.Kind()
	target := kind.Clone().
		Unset(problem.FeatureObjectFluents).
		Unset(problem.FeatureExistentialConditions).
		Unset(problem.FeatureUniversalConditions).
		Unset(problem.FeatureBoundedTypes).
		Unset(problem.FeatureActionParameters).
		Unset(problem.FeatureBoolActionParameters).
		Unset(problem.FeatureBoundedIntActionParameters).
		Unset(problem.FeatureTrajectoryConstraints).
		Unset(problem.FeatureStateInvariants).
		Unset(problem.FeatureDisjunctiveConditions).
		Unset(problem.FeatureNegativeConditions).
		// Passes may introduce these while removing the features above.
		Set(problem.FeatureConditionalEffects).
		Set(problem.FeatureEqualities)
	return compiler.PipelineFor(kind, target)
}

func saveRun(run *results.Run, storePath, runFile string, show bool) {
	if storePath != "" {
		store, err := results.NewSQLStore(storePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open run store: %v\n", err)
		} else {
			if err := store.Save(run); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: cannot record run: %v\n", err)
			}
			_ = store.Close()
		}
	}
	if runFile != "" {
		if err := results.WriteJSON(run, runFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot write run record: %v\n", err)
		}
	}
	if show {
		if str, err := results.ToJSON(run); err == nil {
			fmt.Println(str)
		}
	}
}

func passNames() string {
	names := make([]string, 0)
	for _, c := range compiler.AllPasses() {
		names = append(names, c.Name())
	}
	return strings.Join(names, ", ")
}
