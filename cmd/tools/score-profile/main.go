// cmd/tools/score-profile/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/errors"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/validation"
	"github.com/FarmCreditInc/FarmCreditAI/internal/scoring"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		help(stderr)
		return 1
	}

	switch args[0] {
	case "score":
		return score(args[1:], stdout, stderr)
	case "validate":
		return validate(args[1:], stdout, stderr)
	case "help":
		help(stdout)
		return 0
	default:
		help(stderr)
		return 1
	}
}

func score(args []string, stdout, stderr io.Writer) int {
	scoreCmd := flag.NewFlagSet("score", flag.ContinueOnError)
	scoreCmd.SetOutput(stderr)
	file := scoreCmd.String("file", "", "Path to the farmer profile JSON (- for stdin)")
	pretty := scoreCmd.Bool("pretty", false, "Indent the JSON output")
	at := scoreCmd.String("at", "", "Evaluation time in RFC3339 (default: now)")
	if err := scoreCmd.Parse(args); err != nil {
		return 1
	}
	if *file == "" {
		fmt.Fprintln(stderr, "Error: -file is required for score.")
		scoreCmd.Usage()
		return 1
	}

	now := time.Now()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintf(stderr, "Error: invalid -at value: %v\n", err)
			return 1
		}
		now = t
	}

	data, err := readInput(*file)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading profile: %v\n", err)
		return 1
	}

	result, err := scoring.NewEngine(now).ProcessJSON(data)
	if err != nil {
		writeJSON(stdout, errors.Normalize(err), *pretty)
		return 2
	}
	writeJSON(stdout, result, *pretty)
	return 0
}

func validate(args []string, stdout, stderr io.Writer) int {
	validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	validateCmd.SetOutput(stderr)
	file := validateCmd.String("file", "", "Path to the farmer profile JSON (- for stdin)")
	if err := validateCmd.Parse(args); err != nil {
		return 1
	}
	if *file == "" {
		fmt.Fprintln(stderr, "Error: -file is required for validate.")
		validateCmd.Usage()
		return 1
	}

	data, err := readInput(*file)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading profile: %v\n", err)
		return 1
	}

	validator, err := validation.NewProfileValidator()
	if err != nil {
		fmt.Fprintf(stderr, "Error compiling schema: %v\n", err)
		return 1
	}

	result, err := validator.Validate(data)
	if err != nil {
		fmt.Fprintf(stdout, "Profile is not valid JSON: %v\n", err)
		return 2
	}
	if !result.Valid {
		fmt.Fprintln(stdout, "Profile validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(stdout, "  - %s: %s (%s)\n", e.Field, e.Message, e.Code)
		}
		return 2
	}
	fmt.Fprintln(stdout, "Profile validation passed.")
	return 0
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeJSON(w io.Writer, v interface{}, pretty bool) {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func help(w io.Writer) {
	fmt.Fprintln(w, "Usage: score-profile <command> [options]")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  score     Score a farmer profile: -file <path> [-pretty] [-at <RFC3339>]")
	fmt.Fprintln(w, "  validate  Check a farmer profile against the schema: -file <path>")
	fmt.Fprintln(w, "  help      Show this help message")
}
