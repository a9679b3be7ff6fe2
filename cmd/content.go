package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"content-manager/core/cache"
	"content-manager/feature/content/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	tenantFlag     string
	navigationFlag bool
	databaseFlag   bool
	formatFlag     string
	dryRunFlag     bool
)

// contentCmd is the parent command for all content tree operations.
var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect and reconcile the content tree",
}

// contentReconcileCmd rebuilds the tree from disk.
var contentReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile collection schemas on disk with the database",
	Long: `Scans the collections directory, upserts every collection and the categories
implied by its location, links parents by their database ids and refreshes the
cached snapshot. Collections whose schema file is gone are removed.

Examples:
  # Report what would change, without writing
  content reconcile --dry-run

  # Reconcile one tenant
  content reconcile --tenant acme`,
	RunE: runContentReconcile,
}

// contentTreeCmd prints the tree as JSON.
var contentTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the content tree as JSON",
	Long: `Prints the content tree as JSON.

Examples:
  # Full tree with collection definitions
  content tree

  # Navigation tree (no definitions)
  content tree --nav

  # Stored rows, as a flat list
  content tree --db --format flat`,
	RunE: runContentTree,
}

// contentScanCmd lists the schemas found on disk without touching the database.
var contentScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the collection schemas found on disk",
	RunE:  runContentScan,
}

// contentFirstCmd prints the first collection in navigation order.
var contentFirstCmd = &cobra.Command{
	Use:   "first",
	Short: "Print the first collection in navigation order",
	RunE:  runContentFirst,
}

// contentPurgeCmd drops the cached snapshot of a tenant.
var contentPurgeCmd = &cobra.Command{
	Use:   "purge-cache",
	Short: "Drop every distributed cache entry of a tenant",
	RunE:  runContentPurge,
}

func init() {
	contentCmd.PersistentFlags().StringVar(&tenantFlag, "tenant", "", "Tenant id (defaults to CONTENT_TENANT_ID)")
	contentReconcileCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Print the drift report and exit without writing")
	contentTreeCmd.Flags().BoolVar(&navigationFlag, "nav", false, "Omit collection definitions")
	contentTreeCmd.Flags().BoolVar(&databaseFlag, "db", false, "Read the stored rows instead of the in-memory tree")
	contentTreeCmd.Flags().StringVar(&formatFlag, "format", string(store.FormatNested), "Stored row format with --db (flat or nested)")

	contentCmd.AddCommand(contentReconcileCmd, contentTreeCmd, contentScanCmd, contentFirstCmd, contentPurgeCmd)
	RootCmd.AddCommand(contentCmd)
}

func runContentReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.log.Sync()

	tenant := rt.tenant(tenantFlag)
	if dryRunFlag {
		report, err := rt.manager.Drift(ctx, tenant)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	}

	if err := rt.manager.Refresh(ctx, tenant); err != nil {
		return err
	}

	collections, err := rt.manager.GetCollections(ctx, tenant)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d collections\n", len(collections))
	return nil
}

func runContentTree(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.log.Sync()

	tenant := rt.tenant(tenantFlag)
	if err := rt.manager.Initialize(ctx, tenant); err != nil {
		return err
	}

	var out any
	switch {
	case databaseFlag:
		format := store.Format(formatFlag)
		if format != store.FormatFlat && format != store.FormatNested {
			return fmt.Errorf("unknown format %q", formatFlag)
		}
		res, err := rt.manager.GetContentStructureFromDatabase(ctx, tenant, format)
		if err != nil {
			return err
		}
		if format == store.FormatFlat {
			out = res.Nodes
		} else {
			out = res.Tree
		}
	case navigationFlag:
		if out, err = rt.manager.GetNavigationStructure(ctx, tenant); err != nil {
			return err
		}
	default:
		if out, err = rt.manager.GetContentStructure(ctx, tenant); err != nil {
			return err
		}
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func runContentScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.log.Sync()

	schemas, err := rt.reader.Scan(ctx)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, s := range schemas {
		fmt.Fprintf(w, "%-40s %-38s %d fields\n", s.Path, s.Def.ID, len(s.Def.Fields))
	}
	rt.log.Info("Scan finished", zap.String("root", rt.reader.Root()), zap.Int("schemas", len(schemas)))
	return nil
}

func runContentFirst(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.log.Sync()

	first, err := rt.manager.GetFirstCollection(ctx, rt.tenant(tenantFlag))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), first)
}

func runContentPurge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.log.Sync()

	purger, ok := rt.cache.(cache.Purger)
	if !ok {
		return fmt.Errorf("cache backend %q cannot purge", rt.cfg.Cache.Backend)
	}
	if err := rt.cache.Initialize(ctx); err != nil {
		return err
	}
	tenant := rt.tenant(tenantFlag)
	if err := purger.Purge(ctx, tenant); err != nil {
		return err
	}
	rt.log.Info("Cache purged", zap.String("tenant", tenant))
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
