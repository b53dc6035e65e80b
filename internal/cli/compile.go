package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/greenroom-ai/traceviz/pkg/integrations/analysis"
	"github.com/greenroom-ai/traceviz/pkg/pipeline"
)

// compileOpts holds the command-line flags for the compile command.
type compileOpts struct {
	session     string // session id forwarded to the analysis service
	traceFile   string // read the trace from a file instead of the service
	service     string // analysis service base URL
	output      string // output file (single format) or base path (multiple)
	detailed    bool   // include values and confidences in DOT/SVG labels
	refresh     bool   // bypass cached traces and artifacts
	noCache     bool   // disable caching entirely
	interactive bool   // open the graph preview TUI after compiling
}

// newCompileCmd creates the compile command. It fetches a decision trace
// (from the analysis service or a local file) and compiles it into a
// positioned graph, writing one file per requested format.
func newCompileCmd() *cobra.Command {
	var formatsStr string
	var opts compileOpts

	cmd := &cobra.Command{
		Use:   "compile [query]",
		Short: "Compile a query's decision trace into a graph",
		Long: `Compile a decision trace into a visualization graph.

The trace comes from the analysis service (pass the query as an argument)
or from a local JSON file via --trace. The compiled graph is written as
JSON by default; DOT and SVG renderings can be requested with --format.

Traces and rendered artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) > 0 {
				query = args[0]
			}
			if query == "" && opts.traceFile == "" {
				return fmt.Errorf("a query argument or --trace file is required")
			}
			formats := parseFormats(formatsStr, pipeline.FormatJSON)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return runCompile(cmd, query, formats, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.session, "session", "s", "", "session id forwarded to the analysis service")
	cmd.Flags().StringVar(&opts.traceFile, "trace", "", "read the decision trace from a JSON file")
	cmd.Flags().StringVar(&opts.service, "service", "", "analysis service base URL (default "+analysis.DefaultBaseURL+")")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include values and confidences in DOT/SVG labels")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached traces and artifacts")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "open an interactive graph preview after compiling")

	return cmd
}

func runCompile(cmd *cobra.Command, query string, formats []string, opts compileOpts) error {
	ctx := cmd.Context()

	backend := newCache(opts.noCache)
	runner := pipeline.NewRunner(backend, nil, loggerFromContext(ctx))
	defer runner.Close()

	var client *analysis.Client
	if opts.service != "" {
		client = analysis.NewClient(opts.service, backend)
	}

	pipelineOpts := pipeline.Options{
		Query:     query,
		SessionID: opts.session,
		TraceFile: opts.traceFile,
		Refresh:   opts.refresh,
		Formats:   formats,
		Detailed:  opts.detailed,
		Logger:    loggerFromContext(ctx),
		Analysis:  client,
	}

	spinner := newSpinnerWithContext(ctx, "Compiling decision trace...")
	spinner.Start()

	result, err := runner.Execute(ctx, pipelineOpts)
	if err != nil {
		spinner.StopWithError("Compilation failed")
		return err
	}
	spinner.Stop()

	printSuccess("Compiled decision graph")
	if result.Graph.IsEmpty() {
		printWarning("query produced no trace, graph is empty")
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.FetchHit)

	written, err := writeArtifacts(result.Artifacts, formats, compileBasePath(opts), opts.output)
	if err != nil {
		return err
	}
	for _, path := range written {
		printFile(path)
	}

	if opts.interactive {
		p := tea.NewProgram(newGraphModel(result.Graph))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("graph preview: %w", err)
		}
		return nil
	}

	if len(written) > 0 && strings.HasSuffix(written[0], ".json") {
		printNewline()
		printNextStep("Render it", fmt.Sprintf("traceviz render %s -f svg", written[0]))
	}
	return nil
}

// compileBasePath picks the default output base when -o is not given: the
// trace file's name when compiling from a file, "graph" otherwise.
func compileBasePath(opts compileOpts) string {
	if opts.traceFile != "" {
		return strings.TrimSuffix(opts.traceFile, filepath.Ext(opts.traceFile))
	}
	return "graph"
}

// basePath derives the base output path from the output flag.
// A known format extension (.json, .dot, .svg) is stripped so that
// "graph.svg" and "graph" name the same artifact set.
func basePath(output, fallback string) string {
	if output == "" {
		return fallback
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeArtifacts writes one file per rendered format and returns the paths
// written, in the order the formats were requested.
func writeArtifacts(artifacts map[string][]byte, formats []string, fallback, output string) ([]string, error) {
	base := basePath(output, fallback)

	var written []string
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
			path = output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
