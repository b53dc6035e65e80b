package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/greenroom-ai/traceviz/pkg/cache"
	"github.com/greenroom-ai/traceviz/pkg/graph"
	"github.com/greenroom-ai/traceviz/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file (single format) or base path (multiple)
	detailed bool   // include values and confidences in labels
	refresh  bool   // bypass cached artifacts
	noCache  bool   // disable caching
}

// newRenderCmd creates the render command for exporting a compiled graph
// as DOT or SVG.
func newRenderCmd() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a compiled graph to DOT or SVG",
		Long: `Render a compiled graph to DOT or SVG.

The render command takes a graph.json file (produced by 'compile') and
renders it without refetching the trace. Node positions computed by the
compiler are preserved in the output.

Rendered artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr, pipeline.FormatSVG)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return runRender(cmd, args[0], formats, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include values and confidences in labels")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached artifacts")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func runRender(cmd *cobra.Command, input string, formats []string, opts renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	logger.Debugf("Loaded graph: %d nodes, %d edges", len(g.Nodes), len(g.Edges))

	data, err := graph.Marshal(g)
	if err != nil {
		return fmt.Errorf("hash graph: %w", err)
	}
	graphHash := cache.Hash(data)

	runner := newRunner(ctx, opts.noCache)
	defer runner.Close()

	pipelineOpts := pipeline.Options{
		Formats:  formats,
		Detailed: opts.detailed,
		Refresh:  opts.refresh,
		Logger:   logger,
	}

	spinner := newSpinnerWithContext(ctx, "Rendering graph...")
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, g, graphHash, pipelineOpts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()

	printSuccess("Rendered graph")
	printStats(len(g.Nodes), len(g.Edges), cacheHit)

	fallback := strings.TrimSuffix(input, filepath.Ext(input))
	written, err := writeArtifacts(artifacts, formats, fallback, opts.output)
	if err != nil {
		return err
	}
	for _, path := range written {
		printFile(path)
	}
	return nil
}
