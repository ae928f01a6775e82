package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/mission-control/internal/config"
	"github.com/sells-group/mission-control/internal/db"
	"github.com/sells-group/mission-control/internal/directory"
	"github.com/sells-group/mission-control/internal/model"
)

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Inspect the club directory",
	Long:  "Commands for inspecting the configured club directory and seeding it into postgres.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return cfg.Validate()
	},
}

// -- directory list --

var directoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List normalized clubs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := loadDirectory(cmd.Context(), cfg.Directory)
		if err != nil {
			return err
		}
		formatClubList(cmd.OutOrStdout(), dir.Clubs())
		return nil
	},
}

// -- directory context --

var directoryContextCmd = &cobra.Command{
	Use:   "context",
	Short: "Print the compacted directory sent to the model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := loadDirectory(cmd.Context(), cfg.Directory)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir.Context())
		if dir.Len() > directory.MaxContextClubs {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: %d of %d clubs included in context\n", directory.MaxContextClubs, dir.Len())
		}
		return nil
	},
}

// -- directory export --

var directoryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export normalized clubs as JSON or YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := loadDirectory(cmd.Context(), cfg.Directory)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return exportClubs(cmd.OutOrStdout(), dir.Clubs(), format)
	},
}

// -- directory import --

var directoryImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Seed the postgres clubs table from a json, yaml, xlsx or sqlite file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Directory.Driver != config.DriverPostgres {
			return eris.Errorf("directory import: configured driver is %q, want %q", cfg.Directory.Driver, config.DriverPostgres)
		}

		driver, _ := cmd.Flags().GetString("driver")
		if driver == "" {
			driver = driverForPath(args[0])
		}
		dir, err := loadDirectory(ctx, config.DirectoryConfig{
			Driver: driver,
			Path:   args[0],
			Sheet:  cfg.Directory.Sheet,
		})
		if err != nil {
			return err
		}

		pool, err := pgxpool.New(ctx, cfg.Directory.DSN)
		if err != nil {
			return eris.Wrap(err, "directory import: connect")
		}
		defer pool.Close()

		replace, _ := cmd.Flags().GetBool("replace")
		return importClubs(ctx, cmd.OutOrStdout(), pool, dir.Clubs(), replace)
	},
}

// importClubs merges clubs into postgres by name, or with replace empties
// the table first so the stored order matches the file.
func importClubs(ctx context.Context, w io.Writer, pool db.Pool, clubs []model.Club, replace bool) error {
	if replace {
		n, err := directory.ReplacePostgres(ctx, pool, clubs)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Replaced directory with %d clubs.\n", n)
		return nil
	}

	res, err := directory.SeedPostgres(ctx, pool, clubs)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Imported %d clubs: %d inserted, %d updated.\n", res.Total(), res.Inserted, res.Updated)
	return nil
}

// driverForPath guesses the directory driver from a file extension.
func driverForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.DriverYAML
	case ".xlsx":
		return config.DriverXLSX
	case ".db", ".sqlite", ".sqlite3":
		return config.DriverSQLite
	default:
		return config.DriverJSON
	}
}

func init() {
	directoryExportCmd.Flags().String("format", "json", "output format: json or yaml")
	directoryImportCmd.Flags().String("driver", "", "source driver (default from file extension)")
	directoryImportCmd.Flags().Bool("replace", false, "truncate the clubs table and load the file in order")

	directoryCmd.AddCommand(directoryListCmd, directoryContextCmd, directoryExportCmd, directoryImportCmd)
	rootCmd.AddCommand(directoryCmd)
}

func formatClubList(w io.Writer, clubs []model.Club) {
	if len(clubs) == 0 {
		fmt.Fprintln(w, "No clubs loaded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tMEMBERS\tTAGS")
	for _, c := range clubs {
		members := "-"
		if c.Members != nil {
			members = fmt.Sprintf("%d", *c.Members)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.Category, members, strings.Join(c.Tags, ", "))
	}
	_ = tw.Flush()
}

func exportClubs(w io.Writer, clubs []model.Club, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(clubs), "directory export: encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(clubs); err != nil {
			return eris.Wrap(err, "directory export: encode yaml")
		}
		return eris.Wrap(enc.Close(), "directory export: close yaml")
	default:
		return eris.Errorf("directory export: unsupported format %q", format)
	}
}
