package cli

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/idelchi/sizehist/internal/histogram"
	"github.com/idelchi/sizehist/internal/logger"
	"github.com/idelchi/sizehist/internal/sizes"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Execute runs the CLI with the process arguments.
func (c CLI) Execute() error {
	return c.Command().Execute()
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	options := defaultSettings()

	cmd := &cobra.Command{
		Use:   "sizehist [flags] [root]",
		Short: "Plot the size distribution of files matching a suffix",
		Long: heredoc.Doc(`
			sizehist walks a directory tree, records the size of every file whose
			name ends with a suffix, prints how many were found and plots their
			distribution as a histogram image with a logarithmic count axis.

			Positional Arguments:
			  root                   Directory to analyze. Defaults to ./site.

			Standard output receives exactly one line: "Sizes number: <N>".
			Logs, progress and the optional summary go to standard error.
		`),
		Example: heredoc.Doc(`
			sizehist
			sizehist --x-scale log -o sizes.png public
			sizehist --suffix .md --bins 0 --summary docs
		`),
		Args:          cobra.MaximumNArgs(1),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := options.load(cmd.Flags().Changed); err != nil {
				return err
			}

			if len(args) == 1 {
				options.Root = args[0]
			}

			if err := logger.Init(options.LogLevel, cmd.ErrOrStderr()); err != nil {
				return err
			}

			return logic(cmd.Context(), options, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false

	flags.StringVarP(&options.Suffix, "suffix", "s", sizes.DefaultSuffix, "File name suffix to match (case-sensitive)")
	flags.StringVarP(&options.Output, "output", "o", histogram.DefaultOutput, "Output image path")
	flags.StringVar(&options.Format, "format", "", "Raster format (png, jpg, tif); inferred from --output if empty")
	flags.StringVar(&options.XScale, "x-scale", string(histogram.ScaleLinear), "Size axis scale: linear or log")
	flags.IntVarP(&options.Bins, "bins", "b", histogram.DefaultBins, "Number of bins (0=automatic)")
	flags.StringVar(&options.Width, "width", "12in", "Canvas width (e.g. 12in, 30cm)")
	flags.StringVar(&options.Height, "height", "8in", "Canvas height (e.g. 8in, 20cm)")
	flags.StringVar(&options.Title, "title", "", "Figure title")
	flags.IntVarP(&options.Depth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
	flags.StringSliceVarP(&options.Excludes, "exclude", "e", nil, "Regex patterns to exclude")
	flags.BoolVar(&options.Follow, "follow", false, "Descend into symbolic links to directories")
	flags.StringVar(&options.MinSize, "min-size", "0B", "Minimum file size to sample (e.g., 1KB)")
	flags.BoolVar(&options.Summary, "summary", false, "Print a summary to standard error")
	flags.StringVar(&options.SummaryFormat, "summary-format", "table", "Summary format: table or json")
	flags.StringVarP(&options.ConfigPath, "config", "c", "", "TOML configuration file")
	flags.StringVar(&options.LogLevel, "log-level", logger.DefaultLevel, "Log level (debug, info, warn, error)")
	flags.BoolVar(&options.Debug, "debug", false, "Enable debug output")

	cmd.SetVersionTemplate("{{.Version}}\n")

	return cmd
}
