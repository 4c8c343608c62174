package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"crate/internal/schedule"
	"crate/internal/store"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database and schedule health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				health, err := a.store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Database", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Path", statusInfo, health.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Readable", boolKind(health.DatabaseReadable), yesNo(health.DatabaseReadable), colorize))
				fmt.Fprintln(out, renderStatusLine("Schema", schemaKind(health), fmt.Sprintf("v%d (want v%d)", health.SchemaVersion, store.SchemaVersion), colorize))
				if len(health.MissingTables) > 0 {
					fmt.Fprintln(out, renderStatusLine("Missing tables", statusError, strings.Join(health.MissingTables, ", "), colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Integrity", boolKind(health.IntegrityCheck), yesNo(health.IntegrityCheck), colorize))
				fmt.Fprintln(out, renderStatusLine("Pending releases", statusInfo, strconv.Itoa(health.PendingReleases), colorize))
				if health.Error != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, health.Error, colorize))
				}

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Schedule", colorize) {
					fmt.Fprintln(out, line)
				}
				task, err := a.schedule.Get(cmd.Context(), schedule.RSSSync)
				if err != nil {
					return err
				}
				next := task.NextExecution()
				switch {
				case task.Interval <= 0:
					fmt.Fprintln(out, renderStatusLine("Feed sync", statusWarn, "disabled", colorize))
				default:
					fmt.Fprintln(out, renderStatusLine("Feed sync", statusOK, fmt.Sprintf("every %s, next %s", task.Interval, next.Local().Format(time.RFC3339)), colorize))
				}

				if !health.Healthy() {
					return fmt.Errorf("database at %s is unhealthy", health.DBPath)
				}
				return nil
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}

func schemaKind(h store.Health) statusKind {
	if h.SchemaVersion == store.SchemaVersion {
		return statusOK
	}
	return statusError
}
