package main

import (
	"encoding/json"
	"fmt"

	"github.com/kavishkanimsara/HustleHut-sub001/internal/repository"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/services"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sweepWithdrawalsCmd)
	rootCmd.AddCommand(reapExpiredCmd)

	sweepWithdrawalsCmd.Flags().Bool("json", false, "Print the batch as JSON")
}

var sweepWithdrawalsCmd = &cobra.Command{
	Use:   "sweep-withdrawals",
	Short: "Pay out every verified coach's available balance",
	Long: `Runs one withdrawal batch: every verified coach with a positive balance
gets a FINISHED withdrawal receipt and the balance is reset to zero.
Meant to be scheduled periodically (cron, k8s CronJob).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		_, db, log, err := loadRuntime(ctx, "withdrawal_sweep")
		if err != nil {
			return err
		}
		defer db.Close()

		service := services.NewWithdrawalService(db, repository.NewWithdrawalRepository(db), log)
		batch, err := service.SweepWithdrawals(ctx)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(batch)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Batch %s: %d coaches paid, total %s\n",
			batch.BatchID, len(batch.Withdrawals), batch.Total.StringFixed(2))
		return nil
	},
}

var reapExpiredCmd = &cobra.Command{
	Use:   "reap-expired",
	Short: "Delete unpaid reservations older than the payment window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, db, log, err := loadRuntime(ctx, "expiry_reaper")
		if err != nil {
			return err
		}
		defer db.Close()

		reaper := services.NewExpiryReaper(repository.NewSessionRepository(db), cfg.PendingExpiry, log)
		n, err := reaper.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired reservations\n", n)
		return nil
	},
}
