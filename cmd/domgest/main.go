package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/domgest/internal/dom"
	"github.com/dgallion1/domgest/internal/fetch"
	"github.com/dgallion1/domgest/internal/lexer"
	"github.com/dgallion1/domgest/internal/parser"
	"github.com/dgallion1/domgest/internal/render"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 10 << 20
)

type cliOptions struct {
	chunked        bool
	format         string
	duplicateAttrs string
	endTags        string
	maxBuffer      int
	maxBytes       int64
	timeout        time.Duration
	all            bool
	verbose        bool
}

func main() {
	var opts cliOptions
	flags := pflag.NewFlagSet("domgest", pflag.ExitOnError)
	flags.BoolVarP(&opts.chunked, "chunked", "c", false, "Input is a chunked transfer-encoded body (files and stdin only)")
	flags.StringVarP(&opts.format, "format", "f", "", "Output format: tree|json|stats|segments (default tree on a terminal, json otherwise)")
	flags.StringVar(&opts.duplicateAttrs, "duplicate-attrs", "keep", "Duplicate attribute policy: keep|last|first")
	flags.StringVar(&opts.endTags, "end-tags", "lenient", "End tag policy: lenient|strict")
	flags.IntVar(&opts.maxBuffer, "max-buffer", 0, "Max bytes per lexer buffer (0 is unbounded)")
	flags.Int64Var(&opts.maxBytes, "max-bytes", defaultMaxBytes, "Max fetched and decoded body size")
	flags.DurationVar(&opts.timeout, "timeout", defaultTimeout, "Fetch timeout for URL inputs")
	flags.BoolVarP(&opts.all, "all", "a", false, "Include unknown elements in tree output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log input sizes to stderr")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: domgest [flags] <file|http://url|->\nhttps is not supported; the body is read from a plain TCP connection.\n")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() > 1 {
		flags.Usage()
		os.Exit(2)
	}
	source := "-"
	if flags.NArg() == 1 {
		source = flags.Arg(0)
	}

	if err := checkSource(source); err != nil {
		fatalf("%v", err)
	}
	format, err := resolveFormat(opts.format, term.IsTerminal(int(os.Stdout.Fd())))
	if err != nil {
		fatalf("format: %v", err)
	}
	parseOpts, err := buildParseOptions(opts)
	if err != nil {
		fatalf("%v", err)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	raw, header, err := readInput(ctx, source, os.Stdin, fetch.NewClient(opts.timeout, opts.maxBytes))
	if err != nil {
		fatalf("read %s: %v", source, err)
	}
	if opts.chunked && !isURL(source) {
		header.Set("Transfer-Encoding", "chunked")
	}
	log.Info("input", "source", source, "size", humanize.Bytes(uint64(len(raw))),
		"transfer_encoding", header.Get("Transfer-Encoding"),
		"content_encoding", header.Get("Content-Encoding"))

	tree, err := parser.ParseHTTP(raw, header, parseOpts)
	if err != nil {
		fatalf("parse %s: %v", source, err)
	}
	log.Info("parsed", "nodes", tree.Len(), "max_depth", tree.MaxDepth())

	if err := writeOutput(os.Stdout, tree, format, opts.all); err != nil {
		fatalf("write output: %v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "domgest: "+format+"\n", args...)
	os.Exit(1)
}

func resolveFormat(format string, tty bool) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		if tty {
			return "tree", nil
		}
		return "json", nil
	case "tree", "json", "stats", "segments":
		return f, nil
	default:
		return "", fmt.Errorf("expected tree|json|stats|segments, got %q", format)
	}
}

func buildParseOptions(opts cliOptions) (parser.Options, error) {
	dup, err := lexer.ParseDuplicatePolicy(opts.duplicateAttrs)
	if err != nil {
		return parser.Options{}, fmt.Errorf("duplicate-attrs: %w", err)
	}
	ends, err := dom.ParseEndTagPolicy(opts.endTags)
	if err != nil {
		return parser.Options{}, fmt.Errorf("end-tags: %w", err)
	}
	if opts.maxBuffer < 0 {
		return parser.Options{}, fmt.Errorf("max-buffer must be >= 0")
	}
	return parser.Options{
		Lexer:        lexer.Options{DuplicateAttrs: dup, MaxBufferBytes: opts.maxBuffer},
		Builder:      dom.Options{EndTags: ends},
		MaxBodyBytes: opts.maxBytes,
	}, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://")
}

// checkSource rejects URL schemes the raw fetch client cannot speak.
func checkSource(source string) error {
	if scheme, _, ok := strings.Cut(source, "://"); ok && scheme != "http" && !fileExists(source) {
		return fmt.Errorf("%w %q: only http:// urls are fetched", fetch.ErrUnsupportedScheme, scheme)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type getter interface {
	Get(ctx context.Context, rawURL string) (*fetch.Response, error)
}

// readInput loads the raw body from stdin, a file or a URL. URL responses
// carry their own headers; other sources start with an empty header.
func readInput(ctx context.Context, source string, stdin io.Reader, client getter) ([]byte, http.Header, error) {
	switch {
	case source == "-":
		raw, err := io.ReadAll(stdin)
		return raw, http.Header{}, err
	case isURL(source):
		resp, err := client.Get(ctx, source)
		if err != nil {
			return nil, nil, err
		}
		return resp.Body, resp.Header, nil
	default:
		raw, err := os.ReadFile(source)
		return raw, http.Header{}, err
	}
}

func writeOutput(w io.Writer, tree *dom.Tree, format string, all bool) error {
	switch format {
	case "tree":
		return render.Print(w, tree, render.PrintOptions{All: all})
	case "json":
		if err := render.WriteJSON(w, tree); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	case "stats":
		return writeStats(w, render.Summarize(tree))
	case "segments":
		for _, seg := range render.Segments(tree) {
			path := strings.Join(seg.Path, " > ")
			if path == "" {
				path = "root"
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\n", path, seg.Text); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeStats(w io.Writer, s render.Stats) error {
	kinds := make([]string, 0, len(s.Kinds))
	for k := range s.Kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, s.Kinds[k]))
	}
	_, err := fmt.Fprintf(w, "nodes:     %d\nmax depth: %d\ntext:      %s\nkinds:     %s\n",
		s.Nodes, s.MaxDepth, humanize.Bytes(uint64(s.TextBytes)), strings.Join(parts, " "))
	return err
}
