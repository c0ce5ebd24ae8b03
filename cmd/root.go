package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/2767mr/tmam/internal/catalog"
	"github.com/2767mr/tmam/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "tmam",
	Short: "Shape deconstruction and construction search",
	Long: `tmam works on the 4x4 layered shapes of the factory game.

solve splits targets into parts and a stacking order that rebuilds them.
search finds the cheapest build of every shape reachable from primitive inputs.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .tmam.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("catalog", "", "catalog of possible shapes")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("catalog_path", rootCmd.PersistentFlags().Lookup("catalog"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".tmam")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	// defaults cover a missing file
	_ = viper.ReadInConfig()
}

// setup loads the configuration and builds the logger every command uses.
func setup() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	lvl, err := cfg.Level()
	if err != nil {
		return config.Config{}, nil, err
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	return cfg, log, nil
}

// loadCatalog reads the configured catalog. Without a path the catalog is
// empty, which the empty policy then allows or rejects.
func loadCatalog(cfg config.Config, log logrus.FieldLogger) (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		var err error
		if cat, err = catalog.Load(cfg.CatalogPath, log); err != nil {
			return nil, err
		}
	}
	if err := cat.Check(cfg.EmptyPolicy()); err != nil {
		return nil, err
	}
	if cat.Empty() {
		log.Debug("no catalog, every shape is a candidate")
	}
	return cat, nil
}
