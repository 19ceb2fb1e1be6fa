package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/reports"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
)

// opened is set when connect dialed the database itself.
var opened bool

// connect reuses an installed handle or dials MySQL from DB_*.
func connect() error {
	if config.GetDB() != nil {
		return nil
	}
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		return fmt.Errorf("database not initialized; set DB_* env vars")
	}
	opened = true
	return nil
}

func closeDB() {
	if !opened {
		return
	}
	opened = false
	if db := config.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// explain turns a domain error into its German message for the operator.
func explain(err error) error {
	if utils.KindOf(err) == "" {
		return err
	}
	return errors.New(utils.MessageOf(err))
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables and seed maintenance rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(); err != nil {
				return err
			}
			defer closeDB()

			if err := models.MigrateTable(context.Background()); err != nil {
				return err
			}
			fmt.Println(okColor.Sprint("✓"), "schema up to date")
			return nil
		},
	}
}

func seedAdminCmd() *cobra.Command {
	var username, fullName, password string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first Techniker account with a ready password",
		Long: `Creates an active member with rank Techniker. Techniker hold every
capability, including maintenance settings, so use this once per fresh database.

Examples:
  dashboardctl seed-admin --username tech --password geheim
  dashboardctl seed-admin --username tech --full-name "Tech Nik" --password geheim`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SEED_ADMIN_PASSWORD")
			}
			if err := connect(); err != nil {
				return err
			}
			defer closeDB()

			ctx := context.Background()
			if err := models.MigrateTable(ctx); err != nil {
				return err
			}
			member, err := models.SeedAdmin(ctx, username, fullName, password)
			if err != nil {
				return explain(err)
			}
			fmt.Printf("%s created %s (id=%d, rank=%s)\n",
				okColor.Sprint("✓"), member.Username, member.ID, member.Rank)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name, defaults to the username")
	cmd.Flags().StringVar(&password, "password", "", "password, falls back to SEED_ADMIN_PASSWORD")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func reinviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reinvite [member-id]",
		Short: "Issue a new invitation link for a member without password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid member id %q", args[0])
			}
			if err := connect(); err != nil {
				return err
			}
			defer closeDB()

			invite, err := models.Reinvite(context.Background(), id)
			if err != nil {
				return explain(err)
			}
			fmt.Println(okColor.Sprint("✓"), "invitation renewed for member", invite.MemberId)
			fmt.Println(warnColor.Sprint(invite.InviteLink))
			return nil
		},
	}
}

func exportActivityCmd() *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "export-activity",
		Short: "Write the newest activity log entries to an xlsx file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(); err != nil {
				return err
			}
			defer closeDB()

			entries, err := models.RecentActivity(context.Background(), limit)
			if err != nil {
				return err
			}
			f, err := reports.ActivityWorkbook(entries)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SaveAs(output); err != nil {
				return err
			}
			fmt.Printf("%s wrote %d entries to %s\n", okColor.Sprint("✓"), len(entries), output)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", models.MaxActivityExport, "number of entries, capped at the export maximum")
	cmd.Flags().StringVarP(&output, "output", "o", "aktivitaeten.xlsx", "target file")

	return cmd
}
