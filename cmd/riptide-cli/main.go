package main

import (
	"flag"
	"fmt"
	"os"

	"riptide/internal/strategy"
	"riptide/internal/strategy/builtins"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: riptide-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version          Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  strategies       List built-in strategies\n")
		fmt.Fprintf(os.Stderr, "  schema <id>      Print a strategy's parameter schema\n")
		fmt.Fprintf(os.Stderr, "  defaults <id>    Print a strategy's default parameters\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	registry := strategy.NewRegistry()
	builtins.Register(registry)

	switch os.Args[1] {
	case "version":
		fmt.Printf("riptide-cli %s\n", version)

	case "strategies":
		for _, id := range registry.List() {
			fmt.Println(id)
		}

	case "schema":
		id := requireID(registry)
		schema, err := registry.Schema(id)
		if err != nil {
			fatal(err)
		}
		for _, p := range schema {
			line := fmt.Sprintf("%-18s %-6s default=%v", p.Name, p.Type, p.Default)
			if p.Min != 0 || p.Max != 0 {
				line += fmt.Sprintf("  range=[%v, %v]", p.Min, p.Max)
			}
			if p.Label != "" {
				line += "  " + p.Label
			}
			fmt.Println(line)
		}

	case "defaults":
		id := requireID(registry)
		defaults, err := registry.Defaults(id)
		if err != nil {
			fatal(err)
		}
		schema, _ := registry.Schema(id)
		for _, p := range schema {
			fmt.Printf("%s: %v\n", p.Name, defaults[p.Name])
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

func requireID(registry *strategy.Registry) string {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "missing strategy id (one of %v)\n", registry.List())
		os.Exit(1)
	}
	return os.Args[2]
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
