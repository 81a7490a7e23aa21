package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scriptdex/scriptdex/internal/utils"
	"github.com/scriptdex/scriptdex/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the save history database",
}

// requireHistory opens the history database and fails when it is disabled
// or has not been created yet.
func requireHistory() (*storage.DB, string, error) {
	raw := viper.GetString("history.dbpath")
	if raw == "" {
		return nil, "", fmt.Errorf("save history is disabled (history.dbpath is empty)")
	}
	path, err := utils.HistoryPath(raw)
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, "", fmt.Errorf("database file not found: %s", path)
	}
	db, err := openHistory()
	return db, path, err
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists recent saves, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, _ := cmd.Flags().GetString("slug")
		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")
		since, _ := cmd.Flags().GetDuration("since")

		db, _, err := requireHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		opts := storage.ListOptions{Slug: slug, Kind: kind, Limit: limit}
		if since > 0 {
			opts.Since = time.Now().Add(-since)
		}
		saves, err := db.ListSaves(context.Background(), opts)
		if err != nil {
			return err
		}
		if len(saves) == 0 {
			fmt.Println("No saves recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SAVED AT\tSLUG\tKIND\tCHANGE\tSIZE\tPATH\t")
		for _, s := range saves {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t\n",
				s.SavedAt.Local().Format("2006-01-02 15:04:05"), s.Slug, s.Kind, s.ChangeType, s.Size, s.Path)
		}
		w.Flush()
		return nil
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints save counts per catalog entry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := requireHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "SLUG\tRECORDS\tMANIFESTS\tLAST SAVED\t")

		var totalRecords, totalManifests int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t\n", s.Slug, s.Records, s.Manifests, s.LastSaved.Local().Format("2006-01-02 15:04"))
			totalRecords += s.Records
			totalManifests += s.Manifests
		}

		fmt.Fprintln(w, " \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t \t\n", totalRecords, totalManifests)

		w.Flush()

		return nil
	},
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, path, err := requireHistory()
		if err != nil {
			return err
		}
		// Opening applies the schema; the shell gets its own connection.
		db.Close()

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, path, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(historyCmd)
	dbCmd.AddCommand(statsCmd)
	dbCmd.AddCommand(shellCmd)

	historyCmd.Flags().String("slug", "", "Only saves of this catalog entry")
	historyCmd.Flags().String("kind", "", "Only saves of this kind (json or manifest)")
	historyCmd.Flags().Int("limit", 50, "Maximum rows to print")
	historyCmd.Flags().Duration("since", 0, "Only saves newer than this, e.g. 24h")
}
