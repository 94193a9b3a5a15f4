/*
main.go - bazi command entry point

COMMANDS:
  migrate   Upgrade the legacy pillar database into the indexed schema
  serve     Serve read-only lookups over an upgraded database
  parse     Parse lunar date strings and print the decomposed fields

GLOBAL FLAGS:
  --config      Optional config file (yaml, json, toml)
  --log-level   debug | info | warn | error (default: info)
  --log-format  text | json (default: text)

ENVIRONMENT:
  Every setting can be given as BAZI_<KEY>, e.g. BAZI_SOURCE, BAZI_TARGET,
  BAZI_DB, BAZI_ADDR, BAZI_LOG_LEVEL. A .env file in the working directory is
  loaded first.

EXAMPLES:
  bazi migrate --source ./data/bazi_data.db --target ./data/bazi_data_v2.db
  bazi serve --db ./data/bazi_data_v2.db --addr :8080
  bazi parse 一九九零年闰腊月初一

SEE ALSO:
  - upgrade/upgrade.go: migration driver
  - api/server.go: lookup routes
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gugo-beep/bazi-backend/config"
	"github.com/gugo-beep/bazi-backend/logging"
)

var (
	v       = config.New()
	cfgFile string
	logger  *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "bazi",
	Short:         "Bazi pillar database tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		config.KeyLogLevel:  "log-level",
		config.KeyLogFormat: "log-format",
	})

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(parseCmd)
}

func initConfig() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	if err := config.ReadFile(v, cfgFile); err != nil {
		return err
	}

	cfg := config.Load(v)
	var err error
	logger, err = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return fmt.Errorf("invalid logging settings: %w", err)
	}
	return nil
}

// bindFlags binds config keys to flag names so flags win over env and file.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind %s: %v", name, err))
		}
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
