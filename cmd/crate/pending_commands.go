package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"crate/internal/events"
	"crate/internal/logging"
	"crate/internal/pending"
	"crate/internal/schedule"
	"crate/internal/services"
)

func newPendingCommand(ctx *commandContext) *cobra.Command {
	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "Reconcile and inspect pending releases",
	}

	pendingCmd.AddCommand(newPendingListCommand(ctx))
	pendingCmd.AddCommand(newPendingReconcileCommand(ctx))
	pendingCmd.AddCommand(newPendingRejectCommand(ctx))
	pendingCmd.AddCommand(newPendingGrabbedCommand(ctx))
	pendingCmd.AddCommand(newPendingOldestCommand(ctx))

	return pendingCmd
}

func buildPendingRows(releases []pending.Release) [][]string {
	rows := make([][]string, 0, len(releases))
	for _, r := range releases {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.RemoteAlbum.Artist.Name,
			r.Title,
			statusLabel(r.Reason.Label()),
			strconv.Itoa(len(r.RemoteAlbum.Albums)),
			r.Added.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func newPendingListCommand(ctx *commandContext) *cobra.Command {
	var artistID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending releases, fallback holds included",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				var (
					releases []pending.Release
					err      error
				)
				if artistID > 0 {
					releases, err = a.pending.PendingForArtist(cmd.Context(), artistID)
				} else {
					releases, err = a.pending.Pending(cmd.Context())
				}
				if err != nil {
					return err
				}
				printTable(cmd.OutOrStdout(), "No pending releases",
					[]column{right("ID"), left("Artist"), left("Release"), left("Reason"), right("Albums"), left("Added")},
					buildPendingRows(releases),
				)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&artistID, "artist", 0, "Only list releases of this artist")
	return cmd
}

func newPendingReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <batch.json>",
		Short: "Merge a feed-sync batch of held decisions into the pending set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var batch reconcileBatch
			if err := readJSONFile(args[0], cmd.InOrStdin(), &batch); err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app) error {
				lock := flock.New(a.cfg.SyncLockPath())
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire sync lock: %w", err)
				}
				if !ok {
					return errors.New("another sync cycle is running")
				}
				defer func() {
					if err := lock.Unlock(); err != nil {
						a.logger.Warn("failed to release sync lock", logging.Error(err))
					}
				}()

				started := time.Now().UTC()
				decisions, err := a.pendingDecisions(cmd.Context(), batch)
				if err != nil {
					return err
				}
				if err := a.pending.Reconcile(cmd.Context(), decisions); err != nil {
					return err
				}
				if err := a.schedule.RecordExecution(cmd.Context(), schedule.RSSSync, started, time.Now().UTC()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d decision(s)\n", len(decisions))
				return nil
			})
		},
	}
}

func newPendingRejectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <releases.json>",
		Short: "Drop pending releases a sync rejected on re-evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var batch rejectBatch
			if err := readJSONFile(args[0], cmd.InOrStdin(), &batch); err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app) error {
				if err := a.bus.Dispatch(cmd.Context(), events.SyncRejected{Releases: batch.Releases}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processed %d rejected release(s)\n", len(batch.Releases))
				return nil
			})
		},
	}
}

func newPendingGrabbedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "grabbed <grab.json>",
		Short: "Drop pending releases superseded by a grab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var grab grabInput
			if err := readJSONFile(args[0], cmd.InOrStdin(), &grab); err != nil {
				return err
			}
			model, err := parseQuality(grab.Quality)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app) error {
				artist, albums, err := resolveArtistAlbums(cmd.Context(), a.catalog, grab.ArtistID, grab.AlbumIDs)
				if err != nil {
					return err
				}
				if len(albums) == 0 {
					return services.Wrap(services.ErrValidation, "cli", "grabbed", "at least one album id is required", nil)
				}
				err = a.bus.Dispatch(cmd.Context(), events.AlbumGrabbed{
					Artist:  artist,
					Albums:  albums,
					Quality: model,
					Release: grab.Release,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processed grab of %s\n", grab.Release.Title)
				return nil
			})
		},
	}
}

func newPendingOldestCommand(ctx *commandContext) *cobra.Command {
	var artistID int64
	var albumIDs []int64

	cmd := &cobra.Command{
		Use:   "oldest",
		Short: "Show the oldest pending release covering the given albums",
		RunE: func(cmd *cobra.Command, args []string) error {
			if artistID <= 0 || len(albumIDs) == 0 {
				return services.Wrap(services.ErrValidation, "cli", "oldest", "--artist and --album are required", nil)
			}
			return ctx.withApp(cmd, func(a *app) error {
				oldest, err := a.pending.OldestPending(cmd.Context(), artistID, albumIDs)
				if err != nil {
					return err
				}
				if oldest == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending releases")
					return nil
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader(oldest.Title, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Pending ID", statusInfo, strconv.FormatInt(oldest.ID, 10), colorize))
				fmt.Fprintln(out, renderStatusLine("Reason", reasonKind(oldest.Reason), statusLabel(oldest.Reason.Label()), colorize))
				fmt.Fprintln(out, renderStatusLine("Quality", statusInfo, oldest.ParsedAlbumInfo.Quality.String(), colorize))
				fmt.Fprintln(out, renderStatusLine("Indexer", statusInfo, oldest.Release.Indexer, colorize))
				fmt.Fprintln(out, renderStatusLine("Published", statusInfo, oldest.Release.PublishDate.UTC().Format(time.RFC3339), colorize))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&artistID, "artist", 0, "Artist id")
	cmd.Flags().Int64SliceVar(&albumIDs, "album", nil, "Album id (repeatable)")
	return cmd
}
