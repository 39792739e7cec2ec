package evbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"evhandler/internal/config"
)

// Version is stamped at build time with -ldflags "-X evhandler/internal/evbench.Version=...".
var Version = "dev"

// errUsage marks errors caused by bad invocation rather than a failed run.
var errUsage = errors.New("usage error")

// MainWithArgs runs the CLI with args (without the program name) and returns
// the process exit code: 0 on success, 1 on failure and 2 on usage errors.
func MainWithArgs(args []string) int {
	return mainWith(args, os.Stdout, os.Stderr)
}

func mainWith(args []string, stdout, stderr io.Writer) int {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if len(args) == 0 {
		root := buildRootCmd(stdout, stderr)
		_ = root.Usage()
		return 2
	}
	root := buildRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

// globalOpts are the persistent flags shared by every subcommand.
type globalOpts struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    string
}

// loadConfig resolves the effective configuration: file, then EVBENCH_*
// environment, then explicitly set flags, then defaults.
func loadConfig(ctx context.Context, g *globalOpts, flags *pflag.FlagSet, overlay func(*config.Config, *pflag.FlagSet)) (config.Config, error) {
	var cfg config.Config
	if g.configPath != "" {
		c, err := config.Load(g.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	if err := config.ApplyEnv(ctx, &cfg); err != nil {
		return cfg, fmt.Errorf("env: %w", err)
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = g.logFormat
	}
	if flags.Changed("log-file") {
		cfg.LogFile = g.logFile
	}
	if overlay != nil {
		overlay(&cfg, flags)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %v", errUsage, err)
	}
	return cfg, nil
}

func buildRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalOpts{}
	root := &cobra.Command{
		Use:           "evbench",
		Short:         "Exercise an in-process event handler and report delivery",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", config.DefaultLogLevel, "Log level: trace|debug|info|warn|error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", config.DefaultLogFormat, "Log format: auto|json|console")
	root.PersistentFlags().StringVar(&g.logFile, "log-file", "", "Also write JSON logs to this rotating file")

	root.AddCommand(newRunCmd(g), newConfigCmd(g), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "evbench %s\n", Version)
			return nil
		},
	}
}
