package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/1broseidon/winswap/internal/config"
	"github.com/1broseidon/winswap/internal/ipc"
	"github.com/1broseidon/winswap/internal/platform"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runDaemon(os.Args[2:]))
	case "swap":
		os.Exit(runSwap(os.Args[2:]))
	case "cancel":
		os.Exit(runCancel(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "backends":
		os.Exit(runBackends(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winswap <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Open the window and serve swap requests (foreground)")
	fmt.Fprintln(w, "  swap <backend>      Swap the running window to another backend")
	fmt.Fprintln(w, "  cancel              Cancel a queued or early-stage swap")
	fmt.Fprintln(w, "  status              Show daemon and swap status")
	fmt.Fprintln(w, "  backends            List available backends")
	fmt.Fprintln(w, "  reload              Reload configuration in the daemon")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config presets      List swap tuning presets")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winswap <command> --help' for command-specific options.")
}

// newFlagSet builds a ContinueOnError flag set whose usage prints usage and
// description to stderr.
func newFlagSet(name, usage, description string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, description)
		var hasFlags bool
		fs.VisitAll(func(*flag.Flag) { hasFlags = true })
		if hasFlags {
			fmt.Fprintln(os.Stderr, "")
			fs.PrintDefaults()
		}
	}
	return fs
}

// parseFlags returns -1 when parsing succeeded, otherwise the exit code.
func parseFlags(fs *flag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	return -1
}

func runSwap(args []string) int {
	fs := newFlagSet("swap", "winswap swap [--require f1,f2] [--timeout D] [--no-wait] <backend>",
		"Ask the daemon to replace its window backend. Waits for the outcome unless --no-wait.")
	require := fs.String("require", "", "Comma separated features the target must support")
	timeout := fs.Duration("timeout", 0, "Swap timeout (default: swap.timeout from config)")
	noWait := fs.Bool("no-wait", false, "Return once the swap is queued")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "swap requires exactly one <backend>")
		fs.Usage()
		return 2
	}
	if *timeout < 0 {
		fmt.Fprintln(os.Stderr, "--timeout must be >= 0")
		return 2
	}

	features, err := platform.ParseFeatureSet(*require)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	var names []string
	for _, f := range features.Slice() {
		names = append(names, string(f))
	}

	client := ipc.NewClient()
	data, err := client.Swap(ipc.SwapPayload{
		Target:    fs.Arg(0),
		Require:   names,
		TimeoutMS: timeout.Milliseconds(),
		Wait:      !*noWait,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	printSwap(os.Stdout, data)
	if data.Status == "completed" || data.Status == "queued" {
		return 0
	}
	return 1
}

func printSwap(w io.Writer, d *ipc.SwapData) {
	fmt.Fprintf(w, "id:       %s\n", d.ID)
	fmt.Fprintf(w, "swap:     %s -> %s\n", d.Source, d.Target)
	fmt.Fprintf(w, "status:   %s\n", d.Status)
	if d.Error != "" {
		fmt.Fprintf(w, "error:    %s\n", d.Error)
	}
	if d.Status != "queued" {
		fmt.Fprintf(w, "replayed: %d\n", d.Replayed)
		if d.Spilled > 0 {
			fmt.Fprintf(w, "overflow: %d events past buffer capacity\n", d.Spilled)
		}
		fmt.Fprintf(w, "duration: %s\n", time.Duration(d.DurationMS)*time.Millisecond)
	}
}

func runCancel(args []string) int {
	fs := newFlagSet("cancel", "winswap cancel", "Cancel a queued swap or one still validating or capturing state.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "cancel takes no arguments")
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().Cancel(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("cancel: ok")
	return 0
}

func runReload(args []string) int {
	fs := newFlagSet("reload", "winswap reload", "Reload the daemon configuration.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("reload: ok")
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "winswap status", "Show daemon status via IPC.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printStatus(os.Stdout, status)
	return 0
}

func printStatus(w io.Writer, s *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running:  %v\n", s.DaemonRunning)
	fmt.Fprintf(w, "uptime_seconds:  %d\n", s.UptimeSeconds)
	fmt.Fprintf(w, "current_backend: %s\n", s.CurrentBackend)
	fmt.Fprintf(w, "state:           %s\n", s.State)
	fmt.Fprintf(w, "buffered:        %d\n", s.Buffered)
	fmt.Fprintf(w, "swaps:           %d completed, %d rolled back, %d failed\n", s.Completed, s.RolledBack, s.Failed)
	if s.Pending {
		fmt.Fprintln(w, "pending:         true")
	}
	if a := s.Active; a != nil {
		fmt.Fprintf(w, "active:          %s -> %s (%dms of %dms)\n", a.Source, a.Target, a.ElapsedMS, a.TimeoutMS)
	}
	if l := s.Last; l != nil {
		line := fmt.Sprintf("%s -> %s %s", l.Source, l.Target, l.Status)
		if l.Error != "" {
			line += ": " + l.Error
		}
		fmt.Fprintf(w, "last:            %s\n", line)
	}
}

func runBackends(args []string) int {
	fs := newFlagSet("backends", "winswap backends", "List the backends the daemon can swap to.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "backends takes no arguments")
		fs.Usage()
		return 2
	}

	data, err := ipc.NewClient().ListBackends()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printBackends(os.Stdout, data, isTerminal(os.Stdout))
	return 0
}

// printBackends writes an aligned table on a terminal and one
// "id<TAB>features" line per backend otherwise, for scripts.
func printBackends(w io.Writer, data *ipc.BackendsData, tty bool) {
	if !tty {
		for _, b := range data.Backends {
			fmt.Fprintf(w, "%s\t%s\n", b.ID, strings.Join(b.Features, ","))
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tVERSION\tFEATURES")
	for _, b := range data.Backends {
		mark := ""
		switch {
		case b.Current:
			mark = "*"
		case b.Default:
			mark = "d"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, b.ID, b.Name, b.Version, truncate(strings.Join(b.Features, ","), terminalWidth()/2))
	}
	tw.Flush()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func truncate(s string, n int) string {
	if n <= 3 || len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceBuiltin:
		if src.Name != "" {
			return "builtin:" + src.Name
		}
		return "builtin"
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}
