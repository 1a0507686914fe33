// Command csip-log is a tool for viewing and analyzing coordination capture
// files.
//
// Capture files are created by passing a protocol logger (see pkg/log) to
// the coordinator configuration.
//
// Usage:
//
//	csip-log <command> [flags] <file.clog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSON or CSV format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	csip-log view session.clog
//
//	# View only lock procedure events
//	csip-log view --procedure lock session.clog
//
//	# View only incoming events (notifications)
//	csip-log view --direction in session.clog
//
//	# Export to JSONL
//	csip-log export --format jsonl session.clog
//
//	# Filter by member and save to new file
//	csip-log filter --member abc12345 -o filtered.clog session.clog
//
//	# Show statistics
//	csip-log stats session.clog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/csip-protocol/csip-go/cmd/csip-log/commands"
)

const usage = `csip-log - Coordination Capture Analyzer

Usage:
  csip-log <command> [flags] <file.clog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSON or CSV format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "csip-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `csip-log view - View capture file in human-readable format

Usage:
  csip-log view [flags] <file.clog>

Flags:
`)
		fs.PrintDefaults()
	}

	member := fs.String("member", "", "Filter by member ID prefix")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (attop, state, lock, error)")
	procedure := fs.String("procedure", "", "Filter by procedure (discover, discover-sets, lock-state, lock, release)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	// Build filter
	filter := commands.ViewFilter{MemberID: *member}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if *procedure != "" {
		p, err := commands.ParseProcedureFlag(*procedure)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Procedure = &p
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `csip-log export - Export capture file to JSON or CSV format

Usage:
  csip-log export [flags] <file.clog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunExport(fs.Arg(0), *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `csip-log filter - Filter capture file and write to new file

Usage:
  csip-log filter [flags] <file.clog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "filtered.clog", "Output file")
	member := fs.String("member", "", "Filter by exact member ID")
	timeStart := fs.String("time-start", "", "Filter events at or after this time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter events before this time (RFC3339)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (attop, state, lock, error)")
	procedure := fs.String("procedure", "", "Filter by procedure (discover, discover-sets, lock-state, lock, release)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		MemberID:  *member,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Direction: *direction,
		Category:  *category,
		Procedure: *procedure,
	}

	if err := commands.RunFilter(fs.Arg(0), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `csip-log stats - Show statistics about the capture file

Usage:
  csip-log stats <file.clog>
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
