// -- cmd/render.go --
package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxtree/internal/boxtree"
	"github.com/xkilldash9x/boxtree/internal/config"
	"github.com/xkilldash9x/boxtree/internal/fetch"
	"github.com/xkilldash9x/boxtree/internal/observability"
	"github.com/xkilldash9x/boxtree/internal/style"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newRenderCmd creates and configures the `render` command.
func newRenderCmd() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Converts an HTML document into its box tree",
		Long: `Render parses the given HTML file (or standard input when the
argument is "-"), resolves styles, and prints the constructed box tree.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their corresponding Viper keys so command-line
			// flags correctly override values from the config file and
			// environment variables.
			if err := viper.BindPFlag("viewport.width", cmd.Flags().Lookup("width")); err != nil {
				return err
			}
			if err := viper.BindPFlag("viewport.height", cmd.Flags().Lookup("height")); err != nil {
				return err
			}
			return viper.BindPFlag("fetch.enabled", cmd.Flags().Lookup("fetch"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			cfg.SetRenderConfig(config.RenderConfig{
				Input:  args[0],
				Output: viper.GetString("output"),
				Format: strings.ToLower(viper.GetString("format")),
				Base:   viper.GetString("base"),
			})
			return runRender(cmd, cfg)
		},
	}

	flags := renderCmd.Flags()
	flags.String("base", "http://localhost/", "base URL of the document")
	flags.StringP("output", "o", "", "write the tree to this file instead of stdout")
	flags.StringP("format", "f", "json", "output format: json or text")
	flags.Int("width", 800, "viewport width in pixels")
	flags.Int("height", 600, "viewport height in pixels")
	flags.Bool("fetch", false, "retrieve referenced objects over HTTP")

	// These feed the render config directly rather than a config section.
	_ = viper.BindPFlag("base", flags.Lookup("base"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))

	return renderCmd
}

// runRender performs one conversion with the finalized configuration.
func runRender(cmd *cobra.Command, cfg config.Interface) error {
	logger := observability.GetLogger().Named("render")
	rc := cfg.Render()

	base, err := url.Parse(rc.Base)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", rc.Base, err)
	}

	var in io.Reader
	if rc.Input == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(rc.Input)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	doc, err := html.Parse(in)
	if err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	// The fetcher is real only when object retrieval is switched on;
	// otherwise requests are recorded and completed locally.
	var fetcher boxtree.Fetcher
	var queue *fetch.Queue
	if cfg.Fetch().Enabled {
		queue = fetch.NewQueue(cfg.Fetch(), logger)
		fetcher = queue
	} else {
		fetcher = fetch.NewRecorder()
	}

	content := boxtree.NewContent(base, fetcher, logger)
	content.AvailableWidth = cfg.Viewport().Width
	content.AvailableHeight = cfg.Viewport().Height

	pool := boxtree.NewPool()
	resolver := style.NewResolver(style.UACascader{}, base, logger)
	converter := boxtree.NewConverter(pool, resolver, boxtree.NewTableNormalizer(logger), logger)

	if err := converter.BuildTree(doc, content); err != nil {
		return fmt.Errorf("building box tree: %w", err)
	}
	if queue != nil {
		if err := queue.Close(); err != nil {
			logger.Warn("object fetches did not drain cleanly", zap.Error(err))
		}
	}

	logger.Info("conversion finished",
		zap.Int("boxes", pool.Count()),
		zap.Int("elements", converter.Visited()),
		zap.Int("objects", len(content.Objects())))

	out := cmd.OutOrStdout()
	if rc.Output != "" {
		f, err := os.Create(rc.Output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch rc.Format {
	case "", "json":
		enc, err := json.MarshalIndent(boxtree.DumpTree(content.LayoutRoot()), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding tree: %w", err)
		}
		if _, err := out.Write(append(enc, '\n')); err != nil {
			return err
		}
	case "text":
		if err := boxtree.WriteText(out, content.LayoutRoot()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", rc.Format)
	}
	return nil
}
