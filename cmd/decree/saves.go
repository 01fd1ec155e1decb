package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/daily-decree/internal/config"
	"github.com/talgya/daily-decree/internal/game"
	"github.com/talgya/daily-decree/internal/persistence"
)

func savesCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "saves",
		Short: "List saved games, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			if store == nil {
				return fmt.Errorf("no save store configured")
			}

			saves, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(saves) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved games.")
				return nil
			}

			var last string
			if db, ok := store.(*persistence.DB); ok {
				last = db.LastSaved()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOUNTRY\tTURN\tSAVED")
			for _, m := range saves {
				saved := humanize.Time(m.Time())
				if m.ID == last {
					saved += " *"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					m.ID, m.Name, m.Country, humanize.Comma(int64(m.TurnCount)), saved)
			}
			return w.Flush()
		},
	}
}

func exportCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> [file]",
		Short: "Write a saved game to a portable JSON file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			if store == nil {
				return fmt.Errorf("no save store configured")
			}

			f, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := game.Encode(f)
			if err != nil {
				return err
			}
			path := game.ExportFilename(f.Metadata)
			if len(args) == 2 {
				path = args[1]
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %q (turn %d) to %s (%s)\n",
				f.Metadata.Name, f.TurnCount, path, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
}

func importCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add an exported game to the save store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, err := game.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(args[0]), err)
			}

			store, closeStore, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			if store == nil {
				return fmt.Errorf("no save store configured")
			}
			if err := store.Save(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as %s\n", f.Metadata.Name, f.Metadata.ID)
			return nil
		},
	}
}

func deleteCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a saved game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			if store == nil {
				return fmt.Errorf("no save store configured")
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
