package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"facegate/internal/config"
	"facegate/internal/constants"
	"facegate/internal/identity"
	"facegate/internal/records"
	"facegate/internal/records/mariadb"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect and synchronize enrolled records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identifiers",
	RunE:  runRecordsList,
}

var recordsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import enrollments from the registration system",
	Long: `Import enrollment records from the registration system's MariaDB into
the local PostgreSQL store. The import is one-way and idempotent; existing
records are updated and their reference descriptors replaced.`,
	RunE: runRecordsSync,
}

var recordsNearestCmd = &cobra.Command{
	Use:   "nearest <identifier>",
	Short: "Find enrolled identities nearest to one record's face",
	Long: `Find the enrolled identities whose reference descriptors are closest to
the given record's first descriptor. Small distances between different
identifiers usually mean a duplicate enrollment.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecordsNearest,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsSyncCmd)
	recordsCmd.AddCommand(recordsNearestCmd)

	recordsNearestCmd.Flags().Int("limit", constants.DefaultNearestLimit, "Number of neighbors to show")
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	pool, store, err := openRecordStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	ids, err := store.ListIdentifiers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list identifiers: %w", err)
	}

	for _, id := range ids {
		rec, err := store.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load record %s: %w", id, err)
		}
		fmt.Printf("%s  %-24s  %d descriptors\n", identity.Display(id), rec.Name, len(rec.Descriptors))
	}
	fmt.Printf("\n%d records\n", len(ids))
	return nil
}

func runRecordsSync(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.Registry.DSN == "" {
		return errors.New("REGISTRY_DSN environment variable is required")
	}

	pool, store, err := openRecordStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	registry, err := mariadb.NewPool(cfg.Registry.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to registry: %w", err)
	}
	defer registry.Close()

	recs, err := registry.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to read enrollments: %w", err)
	}

	fmt.Printf("Found %d enrollments to import\n\n", len(recs))

	bar := progressbar.NewOptions(len(recs),
		progressbar.OptionSetDescription("Importing records"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("records"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var imported, failed int
	for _, rec := range recs {
		if err := store.Upsert(ctx, rec); err != nil {
			failed++
			fmt.Printf("\nWarning: failed to import %s: %v\n", rec.Identifier, err)
		} else {
			imported++
		}
		_ = bar.Add(1)
	}

	fmt.Printf("\n\nImported %d records", imported)
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println()
	return nil
}

func runRecordsNearest(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	limit := mustGetInt(cmd, "limit")

	pool, store, err := openRecordStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	rec, err := store.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load record %s: %w", args[0], err)
	}
	if !rec.HasDescriptors() {
		return fmt.Errorf("record %s has no reference descriptors", args[0])
	}

	all, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	index := records.NewNearestIndex()
	if err := index.BuildFromRecords(all); err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	neighbors, err := index.Nearest(rec.Descriptors[0], limit+1)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Nearest to %s (%s):\n", identity.Display(rec.Identifier), rec.Name)
	shown := 0
	for _, n := range neighbors {
		if n.Identifier == rec.Identifier {
			continue
		}
		fmt.Printf("  %s  distance %.4f\n", identity.Display(n.Identifier), n.Distance)
		shown++
		if shown == limit {
			break
		}
	}
	if shown == 0 {
		fmt.Println("  (no other enrolled identities)")
	}
	return nil
}
