package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scriptdex/scriptdex/internal/utils"
	"github.com/scriptdex/scriptdex/pkg/catalog"
	"github.com/scriptdex/scriptdex/pkg/editor"
	"github.com/scriptdex/scriptdex/pkg/manifests"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create or update a catalog record and its manifests",
	Long: `Builds a catalog record from flags, optionally starting from an existing
record file, and saves it together with the manifests passed as KEY=FILE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := draftFromFlags(cmd)
		if err != nil {
			return err
		}

		state := ed.State()
		if dry, _ := cmd.Flags().GetBool("dry-run"); dry || !state.Valid {
			out, err := ed.JSON()
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			for _, v := range state.Errors {
				fmt.Fprintf(os.Stderr, "invalid: %s\n", v)
			}
			if !state.Valid {
				return fmt.Errorf("record has %d violations", len(state.Errors))
			}
			return nil
		}

		history, err := openHistory()
		if err != nil {
			return err
		}
		if history != nil {
			defer history.Close()
		}
		store := openStore(history)

		lock, err := utils.NewWriteLock(store.Root())
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		report, err := ed.Save(context.Background(), store)
		var verr *manifests.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("record rejected: %w", err)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Saved %s\n", report.RecordPath)
		for _, k := range catalog.DeploymentKeys {
			if res, ok := report.Manifests[k]; ok && res.Err == nil {
				fmt.Printf("Saved %s\n", res.Path)
			}
		}
		if failed := report.Failed(); len(failed) > 0 {
			for _, k := range failed {
				utils.Log.WithField("key", k).Error(report.Manifests[k].Err)
			}
			return fmt.Errorf("%d manifests failed to save", len(failed))
		}
		return nil
	},
}

func draftFromFlags(cmd *cobra.Command) (*editor.Editor, error) {
	ed := editor.New(editor.WithLogger(utils.Log))
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		raw, err := os.ReadFile(from)
		if err != nil {
			return nil, err
		}
		rec, err := catalog.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", from, err)
		}
		ed = editor.NewFrom(rec, editor.WithLogger(utils.Log))
	}

	flags := cmd.Flags()
	stringFields := map[string]editor.Field{
		"name":        editor.Name,
		"slug":        editor.Slug,
		"description": editor.Description,
		"date":        editor.DateCreated,
		"website":     editor.Website,
		"docs":        editor.Documentation,
		"source":      editor.SourceCode,
		"logo":        editor.Logo,
	}
	for flag, field := range stringFields {
		if !flags.Changed(flag) {
			continue
		}
		v, _ := flags.GetString(flag)
		if err := ed.Update(field, v); err != nil {
			return nil, err
		}
	}
	if ed.State().Script.DateCreated == "" {
		if err := ed.Update(editor.DateCreated, time.Now().Format("2006-01-02")); err != nil {
			return nil, err
		}
	}
	if flags.Changed("category") {
		ids, _ := flags.GetIntSlice("category")
		if err := ed.Update(editor.Categories, ids); err != nil {
			return nil, err
		}
	}
	if flags.Changed("port") {
		port, _ := flags.GetFloat64("port")
		if err := ed.SetInterfacePort(&port); err != nil {
			return nil, err
		}
	}

	platforms, _ := flags.GetStringSlice("platform")
	for _, p := range platforms {
		f, err := editor.ParsePlatformFlag(p)
		if err != nil {
			return nil, err
		}
		if err := ed.SetPlatformFlag(f, true); err != nil {
			return nil, err
		}
	}

	groups, _ := flags.GetStringSlice("group")
	for _, g := range groups {
		if len(editor.GroupFlags(editor.Group(g))) == 0 {
			return nil, fmt.Errorf("unknown platform group %q", g)
		}
		if err := ed.ToggleGroup(editor.Group(g)); err != nil {
			return nil, err
		}
	}

	deploys, _ := flags.GetStringSlice("deploy")
	for _, d := range deploys {
		key, err := catalog.ParseDeploymentKey(d)
		if err != nil {
			return nil, err
		}
		if err := ed.ToggleDeployment(key, true); err != nil {
			return nil, err
		}
	}

	files, _ := flags.GetStringArray("manifest")
	for _, arg := range files {
		k, path, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("manifest %q must be KEY=FILE", arg)
		}
		key, err := catalog.ParseDeploymentKey(k)
		if err != nil {
			return nil, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := ed.ToggleDeployment(key, true); err != nil {
			return nil, err
		}
		if err := ed.SetManifest(key, string(content)); err != nil {
			return nil, err
		}
	}
	return ed, nil
}

func platformFlagNames() []string {
	var names []string
	for _, g := range []editor.Group{editor.GroupDesktop, editor.GroupMobile, editor.GroupAccess, editor.GroupHosting, editor.GroupUI} {
		for _, f := range editor.GroupFlags(g) {
			names = append(names, string(f))
		}
	}
	return names
}

func init() {
	rootCmd.AddCommand(newCmd)
	f := newCmd.Flags()
	f.String("from", "", "Start from an existing record JSON file")
	f.String("name", "", "Display name")
	f.String("slug", "", "URL-safe identifier")
	f.String("description", "", "Short description")
	f.String("date", "", "Creation date, YYYY-MM-DD (default today)")
	f.String("website", "", "Project website URL")
	f.String("docs", "", "Documentation URL")
	f.String("source", "", "Source code URL")
	f.String("logo", "", "Logo URL")
	f.IntSlice("category", nil, "Category ID (repeatable)")
	f.Float64("port", 0, "Web interface port")
	f.StringSlice("platform", nil, "Platform flag (repeatable): "+strings.Join(platformFlagNames(), ", "))
	f.StringSlice("group", nil, "Toggle a whole platform group: desktop, mobile, access, hosting, ui (repeatable)")
	f.StringSlice("deploy", nil, "Deployment key: script, docker, docker_compose, helm, kubernetes, terraform (repeatable)")
	f.StringArray("manifest", nil, "Manifest content as KEY=FILE (repeatable, enables KEY)")
	f.Bool("dry-run", false, "Print the record without saving")
}
