package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scriptdex/scriptdex/pkg/catalog"
	"github.com/scriptdex/scriptdex/pkg/views"
)

var viewsCmd = &cobra.Command{
	Use:       "views latest|trending|popular|most-viewed|sponsored",
	Short:     "Print one of the catalog listing blocks",
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: []string{"latest", "trending", "popular", "most-viewed", "sponsored"},
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")

		cached, err := catalogSource(openStore(nil))
		if err != nil {
			return err
		}
		cats, err := cached.Categories(context.Background())
		if err != nil {
			return err
		}

		now := time.Now()
		var scripts []catalog.Script
		switch args[0] {
		case "latest":
			scripts = views.Latest(cats)
		case "trending":
			scripts = views.Trending(cats, now)
		case "popular":
			scripts = views.Popular(cats, featuredSlugs())
		case "most-viewed":
			scripts = views.MostViewed(cats, featuredSlugs())
		case "sponsored":
			scripts = views.Sponsored(cats, now, viper.GetInt("views.sponsored_max"))
		}

		p := views.Map(views.Paginate(scripts, page, size), views.NewCard)
		if p.Total == 0 {
			fmt.Println("No entries.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SLUG\tNAME\tCREATED\tSTARS\tDEPLOY\t")
		for _, c := range p.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", c.Slug, c.Name, c.DateCreated, c.Stars, strings.Join(c.Badges, ","))
		}
		w.Flush()
		fmt.Printf("\npage %d/%d (%d entries)\n", p.Number, p.Pages, p.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewsCmd)
	viewsCmd.Flags().Int("page", 1, "Page number")
	viewsCmd.Flags().Int("size", views.PageSizeLarge, "Page size")
}
