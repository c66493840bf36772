package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cocode-io/cocode"
	"github.com/cocode-io/cocode/errors"
	"github.com/cocode-io/cocode/store"
	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds state shared by all commands of one invocation.
type app struct {
	v      *viper.Viper
	logger zerolog.Logger
	stdin  io.Reader
}

func newRootCmd() *cobra.Command {
	a := &app{
		v:      viper.New(),
		logger: zerolog.Nop(),
	}
	cmd := &cobra.Command{
		Use:           "cocode",
		Short:         "Assemble stack-machine bytecode",
		Long:          "cocode assembles YAML instruction listings into immutable bytecode artifacts.",
		Version:       fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.cocode.yaml)")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.String("store", "", "artifact store: a directory, s3://bucket/prefix or postgres:// URL")
	flags.String("s3-region", "", "AWS region of an S3 store")
	flags.String("s3-endpoint", "", "endpoint of an S3-compatible service")
	flags.String("pg-table", store.DefaultTable, "table of a PostgreSQL store")
	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		a.assembleCmd(),
		a.checkCmd(),
		a.disCmd(),
		a.pushCmd(),
		a.pullCmd(),
		a.docCmd(),
		a.versionCmd(),
	)
	return cmd
}

// setup reads the configuration file and environment and configures logging
// and colors.
func (a *app) setup(cmd *cobra.Command) error {
	a.stdin = cmd.InOrStdin()
	a.v.SetEnvPrefix("COCODE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if path := a.v.GetString("config"); path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return err
		}
		a.v.SetConfigFile(expanded)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	} else if home, err := homedir.Dir(); err == nil {
		a.v.AddConfigPath(home)
		a.v.SetConfigName(".cocode")
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	if os.Getenv("NO_COLOR") != "" {
		a.v.Set("no-color", true)
	}
	if a.v.GetBool("no-color") {
		color.NoColor = true
	}

	level, err := zerolog.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q", a.v.GetString("log-level"))
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     cmd.ErrOrStderr(),
		NoColor: !a.useColor(cmd.ErrOrStderr()),
	}).Level(level).With().Timestamp().Logger()
	a.logger.Debug().Str("config", a.v.ConfigFileUsed()).Msg("configured")
	return nil
}

// useColor reports whether output written to w should be colored.
func (a *app) useColor(w io.Writer) bool {
	return !a.v.GetBool("no-color") && isTerminal(w)
}

// assembleOptions turns command flags into assembly options. Flags left at
// their defaults do not override the listing header.
func (a *app) assembleOptions(cmd *cobra.Command) []cocode.Option {
	opts := []cocode.Option{cocode.WithLogger(a.logger)}
	flags := cmd.Flags()
	if flags.Changed("name") {
		name, _ := flags.GetString("name")
		opts = append(opts, cocode.WithName(name))
	}
	if flags.Changed("stacksize") {
		size, _ := flags.GetInt("stacksize")
		opts = append(opts, cocode.WithStackSize(size))
	}
	if strict, _ := flags.GetBool("strict"); strict {
		opts = append(opts, cocode.WithStrictStack())
	}
	return opts
}

func addAssembleFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "override the artifact name")
	cmd.Flags().Int("stacksize", 0, "declare a fixed stack size")
	cmd.Flags().Bool("strict", false, "make stack underflow an error")
}

// openStore opens the configured artifact store.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	location := a.v.GetString("store")
	if location == "" {
		return nil, errors.New("no store configured: set --store or COCODE_STORE")
	}
	location, err := homedir.Expand(location)
	if err != nil {
		return nil, err
	}
	opts := []store.Option{
		store.WithLogger(a.logger),
		store.WithTable(a.v.GetString("pg-table")),
	}
	if region := a.v.GetString("s3-region"); region != "" {
		opts = append(opts, store.WithRegion(region))
	}
	if endpoint := a.v.GetString("s3-endpoint"); endpoint != "" {
		opts = append(opts, store.WithEndpoint(endpoint))
	}
	if key := a.v.GetString("s3-access-key"); key != "" {
		opts = append(opts, store.WithCredentials(key, a.v.GetString("s3-secret-key")))
	}
	return store.Open(ctx, location, opts...)
}
