package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	faqmigrate "github.com/goliatone/go-faqmigrate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// moduleBuilder constructs the module from the resolved config. Tests swap it
// to inject in-memory stores.
var moduleBuilder = func(cfg faqmigrate.Config) (*faqmigrate.Module, error) {
	return faqmigrate.New(cfg)
}

type app struct {
	viper   *viper.Viper
	cfgFile string
	verbose bool
}

// NewRootCommand builds the faqmigrate command tree.
func NewRootCommand() *cobra.Command {
	a := &app{viper: newViper()}

	root := &cobra.Command{
		Use:           "faqmigrate",
		Short:         "Migrate Rank Math FAQ blocks to SEOPress FAQ blocks",
		Long:          color.CyanString("faqmigrate rewrites legacy FAQ blocks in resumable batches"),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./faqmigrate.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	flags.String("storage-driver", "", "document store: memory|sqlite|postgres|mongo|file")
	flags.String("storage-dsn", "", "dsn for the sqlite or postgres driver")
	flags.String("storage-dir", "", "export directory for the file driver")
	flags.String("lock-provider", "", "run lock: none|memory|redis")
	flags.String("log-level", "", "log level: trace|debug|info|warn|error")
	_ = a.viper.BindPFlag("storage.driver", flags.Lookup("storage-driver"))
	_ = a.viper.BindPFlag("storage.dsn", flags.Lookup("storage-dsn"))
	_ = a.viper.BindPFlag("storage.dir", flags.Lookup("storage-dir"))
	_ = a.viper.BindPFlag("lock.provider", flags.Lookup("lock-provider"))
	_ = a.viper.BindPFlag("logging.level", flags.Lookup("log-level"))

	root.AddCommand(
		a.newRunCommand(),
		a.newRunScheduledCommand(),
		a.newResetCommand(),
		a.newSettingsCommand(),
		a.newScheduleCommand(),
		a.newServeCommand(),
	)
	return root
}

// withModule loads the config, builds the module and closes it after fn.
func (a *app) withModule(cmd *cobra.Command, fn func(context.Context, *faqmigrate.Module) error) error {
	cfg, err := loadConfig(a.viper, a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose && a.viper.ConfigFileUsed() != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", a.viper.ConfigFileUsed())
	}
	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer module.Close(context.WithoutCancel(ctx))
	return fn(ctx, module)
}
