package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aryankumar/multikube/internal/cluster"
	"github.com/aryankumar/multikube/internal/discovery"
	"github.com/aryankumar/multikube/internal/executor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Environment holds the process streams and the backends a run talks to.
// Nil backends are replaced with the real AWS, kubectl and client-go ones.
type Environment struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Provider lists clusters for one (profile, region) pair
	Provider discovery.Provider

	// Runner launches the kubectl process for one cluster
	Runner executor.Runner

	// Clients builds API clients for --check
	Clients cluster.ClientFactory

	// SSOLogin refreshes the credentials of one profile for --init --sso-login
	SSOLogin func(ctx context.Context, awsBin, profile string) error
}

// DefaultEnvironment uses the process streams and real backends
func DefaultEnvironment() *Environment {
	return &Environment{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// options holds the action flags that are not configuration
type options struct {
	configFile string
	verbose    bool

	init     bool
	ssoLogin bool
	renew    bool

	storeContext  string
	name          string
	setContext    string
	context       string
	deleteContext string
	clusters      []string

	listClusters bool
	listContexts bool
	check        bool
	completion   string
	version      bool
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return NewRootCmd(DefaultEnvironment()).ExecuteContext(ctx)
}

// NewRootCmd creates the root command. Flag parsing stops at the first
// positional argument; everything from there on is handed to kubectl.
func NewRootCmd(env *Environment) *cobra.Command {
	v := viper.New()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "multikube [flags] [kubectl args...]",
		Short: "MultiKube - run kubectl across many EKS clusters at once",
		Long: `MultiKube discovers the EKS clusters reachable from your AWS profiles,
caches them, and runs one kubectl command against every cluster selected by a
named regex context. Tabular output is merged into one table with a leading
CLUSTER column; other output is streamed with a cluster prefix on each line.`,
		Example: `  # Discover clusters across all profiles and regions
  multikube --init

  # Store and select a context
  multikube --store-context '^prod-' --name prod
  multikube --set-context prod

  # Run kubectl against every cluster in the default context
  multikube get pods -n kube-system

  # One-off selection
  multikube --context dev logs deploy/api --tail 20
  multikube --clusters prod-a-001,prod-b-001 get nodes`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, v, env, opts, args)
		},
	}

	rootCmd.SetIn(env.Stdin)
	rootCmd.SetOut(env.Stdout)
	rootCmd.SetErr(env.Stderr)

	flags := rootCmd.Flags()
	flags.SetInterspersed(false)

	flags.StringVar(&opts.configFile, "config", "", "config file (default is ~/.multikube/config.yaml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output with debug logging")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("format", "text", "report format (text, json, yaml)")

	flags.BoolVar(&opts.init, "init", false, "discover clusters and rebuild the cluster cache")
	flags.BoolVar(&opts.ssoLogin, "sso-login", false, "run 'aws sso login' for every profile before --init")
	flags.BoolVar(&opts.renew, "renew-cache", false, "rediscover clusters before running")
	flags.StringVar(&opts.storeContext, "store-context", "", "store a cluster selection `PATTERN` as a named context")
	flags.StringVar(&opts.name, "name", "", "context name for --store-context (prompted when empty)")
	flags.StringVar(&opts.setContext, "set-context", "", "make the named context the default")
	flags.StringVar(&opts.context, "context", "", "use the named context for this run only")
	flags.StringVar(&opts.deleteContext, "delete-context", "", "delete the named context")
	flags.StringSliceVar(&opts.clusters, "clusters", nil, "run against these cached clusters instead of a context")
	flags.BoolVar(&opts.listClusters, "list-clusters", false, "list cached clusters")
	flags.BoolVar(&opts.listContexts, "list-contexts", false, "list stored contexts")
	flags.BoolVar(&opts.check, "check", false, "check API server health of the selected clusters")
	flags.StringVar(&opts.completion, "completion", "", "print a completion script for `SHELL` (bash, zsh, fish, powershell)")
	flags.BoolVar(&opts.version, "version", false, "print version information")

	flags.Duration("cache-ttl", 0, "how long discovered clusters are reused (default 1 year)")
	flags.Duration("timeout", 20*time.Second, "timeout for each cluster's kubectl invocation")
	flags.Duration("run-timeout", 0, "timeout for the whole run (0 disables)")
	flags.IntP("parallel", "p", 0, "maximum concurrent kubectl processes (default 4 per CPU, 4 to 50)")
	flags.Int("retries", 0, "retries for invocations that exit non-zero")
	flags.Duration("retry-backoff", 2*time.Second, "initial delay between retries, doubled each time")
	flags.String("kubectl", "kubectl", "kubectl binary")
	flags.String("aws", "aws", "aws CLI binary")
	flags.StringSlice("profiles", nil, "AWS profiles to scan (default: all profiles in ~/.aws/config)")
	flags.StringSlice("regions", nil, "AWS regions to scan (default: stored region list)")
	flags.String("state-dir", "", "state directory (default ~/.multikube)")

	for _, name := range []string{
		"no-color", "format", "cache-ttl", "timeout", "run-timeout", "parallel", "retries",
		"retry-backoff", "kubectl", "aws", "profiles", "regions", "state-dir",
	} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	return rootCmd
}

func runRoot(cmd *cobra.Command, v *viper.Viper, env *Environment, opts *options, args []string) error {
	if opts.completion != "" {
		return runCompletion(cmd, opts.completion)
	}

	a, err := newApp(v, env, opts)
	if err != nil {
		return err
	}

	if err := opts.validate(args); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case opts.version:
		return a.printVersion()
	case opts.init:
		return a.initCache(ctx)
	case opts.storeContext != "":
		return a.storeContext(opts.storeContext, opts.name)
	case opts.setContext != "":
		return a.setDefaultContext(opts.setContext)
	case opts.deleteContext != "":
		return a.deleteContext(opts.deleteContext)
	case opts.listContexts:
		return a.listContexts()
	case opts.listClusters:
		return a.listClusters(ctx)
	case opts.check:
		return a.checkHealth(ctx)
	case len(args) == 0:
		return a.selectDefaultContext()
	default:
		return a.run(ctx, args)
	}
}

// validate rejects combinations of actions that would silently ignore one of them
func (o *options) validate(args []string) error {
	var actions []string
	for flag, set := range map[string]bool{
		"--version":        o.version,
		"--init":           o.init,
		"--store-context":  o.storeContext != "",
		"--set-context":    o.setContext != "",
		"--delete-context": o.deleteContext != "",
		"--list-contexts":  o.listContexts,
		"--list-clusters":  o.listClusters,
		"--check":          o.check,
	} {
		if set {
			actions = append(actions, flag)
		}
	}

	if len(actions) > 1 {
		return usageError("only one of %v may be given", sortedStrings(actions))
	}
	if len(actions) == 1 && len(args) > 0 {
		return usageError("%s does not take kubectl arguments", actions[0])
	}
	if o.context != "" && len(o.clusters) > 0 {
		return usageError("--context and --clusters are mutually exclusive")
	}
	if o.ssoLogin && !o.init {
		return usageError("--sso-login requires --init")
	}
	if o.name != "" && o.storeContext == "" {
		return usageError("--name requires --store-context")
	}
	return nil
}

// setupLogging configures structured logging with slog
func setupLogging(w io.Writer, verbose, noColor bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if noColor {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func usageError(format string, a ...interface{}) error {
	return fmt.Errorf("invalid usage: "+format, a...)
}
