package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scriptdex/scriptdex/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `                _       _      _
  ___  ___ _ __(_)_ __ | |_ __| | _____  __
 / __|/ __| '__| | '_ \| __/ _` + "`" + ` |/ _ \ \/ /
 \__ \ (__| |  | | |_) | || (_| |  __/>  <
 |___/\___|_|  |_| .__/ \__\__,_|\___/_/\_\
                 |_|
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scriptdex",
	Short: "A catalog of self-hostable application deployment scripts.",
	Long: LOGO + `scriptdex serves a browsable catalog of deployment scripts and stores the
manifests (Dockerfile, compose, Helm, Kubernetes, Terraform) authored for each entry.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.scriptdex.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("public-root", "", "Directory holding saved manifests and records (default ./public)")
	rootCmd.PersistentFlags().String("catalog", "", "Catalog metadata URL or file path")
	rootCmd.PersistentFlags().String("db", "", "Save history database path (default ~/.config/scriptdex/history.sqlite)")
	viper.BindPFlag("server.public_root", rootCmd.PersistentFlags().Lookup("public-root"))
	viper.BindPFlag("catalog.source", rootCmd.PersistentFlags().Lookup("catalog"))
	viper.BindPFlag("history.dbpath", rootCmd.PersistentFlags().Lookup("db"))
}

func setDefaults() {
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.public_root", "./public")
	viper.SetDefault("server.max_conns", 0)
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("catalog.source", "")
	viper.SetDefault("catalog.ttl", "5m")
	viper.SetDefault("catalog.strict_categories", false)
	viper.SetDefault("history.dbpath", "~/.config/scriptdex/history.sqlite")
	viper.SetDefault("views.featured", []string{})
	viper.SetDefault("views.sponsored_max", 5)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".scriptdex")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SCRIPTDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".scriptdex.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating config file: %s\n", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if _, err := utils.ParseLevel(levelString); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	utils.SetLogLevel(levelString)
}
