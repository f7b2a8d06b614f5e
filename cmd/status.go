package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"roster-manager/core/reconcile"
	"roster-manager/feature/library"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	repairStatus bool
	dryRunStatus bool
	yesConfirm   bool
)

// statusCmd reports the reconciled state of the library and optionally
// repairs the index.
var statusCmd = &cobra.Command{
	Use:   "status [kind]",
	Short: "Report library status (filesystem vs roster script vs index)",
	Long: `Reconciles the filesystem, the roster script, and the library index
and reports every item's status: active, disabled, unregistered, missing,
broken, or duplicate.

The index is derived data, so --repair only ever rewrites index rows.
The roster script and the filesystem are never touched; their conflicts
are reported for the user to resolve.

Examples:
  # Report all kinds
  status

  # Report characters only
  status character

  # Report and repair the index (with interactive confirmation)
  status --repair

  # Repair with auto-confirm (non-interactive)
  status --repair --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&repairStatus, "repair", false, "Repair index rows that disagree with the filesystem")
	statusCmd.Flags().BoolVar(&dryRunStatus, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	statusCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm repairs (non-interactive)")

	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	l := a.logger

	kinds := []library.Kind{library.KindCharacter, library.KindStage, library.KindScreenpack}
	if len(args) == 1 {
		kind := library.Kind(args[0])
		if !library.ValidKind(kind) {
			return fmt.Errorf("unknown content kind %q", args[0])
		}
		kinds = []library.Kind{kind}
	}

	// Step 1: plan only, so the report never mutates anything.
	plans := make(map[library.Kind]*reconcile.Plan, len(kinds))
	for _, kind := range kinds {
		plan, err := a.service.Reconcile(ctx, kind, reconcile.Options{DryRun: true, DoRepair: repairStatus})
		if err != nil {
			return fmt.Errorf("failed to reconcile %s: %w", kind, err)
		}
		plans[kind] = plan
		printStatusReport(l, kind, plan)
	}

	if !repairStatus {
		return nil
	}
	if dryRunStatus {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}

	total := 0
	for _, plan := range plans {
		total += len(plan.Actions)
	}
	if total == 0 {
		l.Info("Index already matches the filesystem.")
		return nil
	}

	if !confirmRepair(total) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	for _, kind := range kinds {
		if len(plans[kind].Actions) == 0 {
			continue
		}
		if _, err := a.service.Refresh(ctx, kind); err != nil {
			return fmt.Errorf("failed to repair %s index: %w", kind, err)
		}
	}
	l.Info("Index repaired", zap.Int("actions", total))
	return nil
}

// printStatusReport prints one kind's reconciliation summary using logger.
func printStatusReport(l *zap.Logger, kind library.Kind, plan *reconcile.Plan) {
	s := plan.Summary

	l.Info("Library status",
		zap.String("kind", string(kind)),
		zap.Int("total", s.TotalItems),
		zap.Int("active", s.Active),
		zap.Int("disabled", s.Disabled),
		zap.Int("unregistered", s.Unregistered),
		zap.Int("missing", s.Missing),
		zap.Int("broken", s.Broken),
		zap.Int("duplicate", s.Duplicate),
	)

	// Conflicts need per-item attention, so list them individually.
	for _, r := range plan.Results {
		switch r.Status {
		case reconcile.StatusMissing, reconcile.StatusBroken, reconcile.StatusDuplicate:
			l.Warn("Needs attention",
				zap.String("kind", string(kind)),
				zap.String("id", r.ID),
				zap.String("status", string(r.Status)),
				zap.Strings("paths", r.Paths),
			)
		}
	}

	if len(plan.Actions) > 0 {
		l.Info("Planned index repairs",
			zap.String("kind", string(kind)),
			zap.Int("actions", len(plan.Actions)))
	}
}

// confirmRepair prompts the user for confirmation or uses the --yes flag.
func confirmRepair(actions int) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\nType 'yes' to apply %d index repairs: ", actions)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
