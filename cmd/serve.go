package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scriptdex/scriptdex/internal/server"
	"github.com/scriptdex/scriptdex/internal/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the catalog and manifest API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := openHistory()
		if err != nil {
			return err
		}
		if history != nil {
			defer history.Close()
		}

		store := openStore(history)
		catalog, err := catalogSource(store)
		if err != nil {
			return err
		}

		srv := server.New(store, catalog, history, server.Config{
			Username:         viper.GetString("server.username"),
			Password:         viper.GetString("server.password"),
			Featured:         featuredSlugs(),
			SponsoredMax:     viper.GetInt("views.sponsored_max"),
			StrictCategories: viper.GetBool("catalog.strict_categories"),
			MaxConns:         viper.GetInt("server.max_conns"),
		}, utils.Log)

		utils.Log.WithField("public_root", store.Root()).Info("Serving manifests")
		return srv.Start(viper.GetString("server.listen"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Int("max-conns", 0, "Maximum concurrent connections (0 for unlimited)")
	serveCmd.Flags().StringSlice("featured", nil, "Featured slugs boosted in the popular view")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("server.max_conns", serveCmd.Flags().Lookup("max-conns"))
	viper.BindPFlag("views.featured", serveCmd.Flags().Lookup("featured"))
}
