package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"panicconf/internal/archive"
	"panicconf/internal/config"
	"panicconf/internal/core"
	"panicconf/pkg/domain"
)

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write the snapshot to a file instead of stdout")
	archiveCmd.AddCommand(archiveCreateCmd)
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveRestoreCmd)
}

// withStore runs fn against the configured persistence backend.
func withStore(fn func(cfg config.Config, store core.PersistentStore) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	engine := core.NewDefaultRulesEngine()
	store, closeStore, err := openStore(cfg, engine)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()
	return fn(cfg, store)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full configuration as a JSON snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ config.Config, store core.PersistentStore) error {
			data, err := json.MarshalIndent(store.ExportState(), "", "  ")
			if err != nil {
				return err
			}
			if exportOutput == "" {
				fmt.Println(string(data))
				return nil
			}
			return os.WriteFile(exportOutput, append(data, '\n'), 0o600)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <snapshot.json>",
	Short: "Replace the full configuration from a JSON snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var snapshot domain.Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("parse snapshot: %w", err)
		}
		return withStore(func(_ config.Config, store core.PersistentStore) error {
			if err := store.ImportState(snapshot); err != nil {
				return err
			}
			fmt.Printf("imported %d chains, %d nodes, %d systems\n",
				len(store.ListChains()), len(store.ListNodes()), len(store.ListSystems()))
			return nil
		})
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage snapshot archives in the blob backend",
}

// withArchiver opens both the store and the archive backend.
func withArchiver(cmd *cobra.Command, fn func(store core.PersistentStore, a *archive.Archiver) error) error {
	return withStore(func(cfg config.Config, store core.PersistentStore) error {
		blobStore, err := openBlob(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return fn(store, archive.New(blobStore, zap.NewNop()))
	})
}

var archiveCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Archive the current configuration snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchiver(cmd, func(store core.PersistentStore, a *archive.Archiver) error {
			entry, err := a.Archive(cmd.Context(), store.ExportState())
			if err != nil {
				return err
			}
			fmt.Printf("archived %s (%d bytes)\n", entry.Key, entry.Size)
			return nil
		})
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchiver(cmd, func(_ core.PersistentStore, a *archive.Archiver) error {
			entries, err := a.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSIZE\tARCHIVED")
			for _, entry := range entries {
				fmt.Fprintf(w, "%s\t%d\t%s\n", entry.Key, entry.Size, entry.ArchivedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		})
	},
}

var archiveRestoreCmd = &cobra.Command{
	Use:   "restore <key>",
	Short: "Replace the configuration from an archived snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchiver(cmd, func(store core.PersistentStore, a *archive.Archiver) error {
			snapshot, err := a.Restore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := store.ImportState(snapshot); err != nil {
				return err
			}
			fmt.Printf("restored %s\n", args[0])
			return nil
		})
	},
}
