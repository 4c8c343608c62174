package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"crate/internal/pending"
	"crate/internal/services"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the pending download queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))

	return queueCmd
}

// queueItemView is the JSON shape of one queue row.
type queueItemView struct {
	ID                      int64     `json:"id"`
	PendingID               int64     `json:"pendingId"`
	ArtistID                int64     `json:"artistId"`
	Artist                  string    `json:"artist"`
	AlbumID                 int64     `json:"albumId,omitempty"`
	Album                   string    `json:"album,omitempty"`
	Title                   string    `json:"title"`
	Quality                 string    `json:"quality"`
	Protocol                string    `json:"protocol"`
	Indexer                 string    `json:"indexer"`
	Size                    int64     `json:"size"`
	Sizeleft                int64     `json:"sizeleft"`
	Timeleft                string    `json:"timeleft"`
	EstimatedCompletionTime time.Time `json:"estimatedCompletionTime"`
	Added                   time.Time `json:"added"`
	Status                  string    `json:"status"`
	CustomFormatScore       int       `json:"customFormatScore"`
	ErrorMessage            string    `json:"errorMessage,omitempty"`
}

func newQueueItemView(item pending.QueueItem) queueItemView {
	view := queueItemView{
		ID:                      item.ID,
		PendingID:               item.CandidateID,
		ArtistID:                item.Artist.ID,
		Artist:                  item.Artist.Name,
		Title:                   item.Title,
		Quality:                 item.Quality.String(),
		Protocol:                string(item.Protocol),
		Indexer:                 item.Indexer,
		Size:                    item.Size,
		Sizeleft:                item.Sizeleft,
		Timeleft:                item.Timeleft.String(),
		EstimatedCompletionTime: item.EstimatedCompletionTime,
		Added:                   item.Added,
		Status:                  item.Status,
		CustomFormatScore:       item.CustomFormatScore,
		ErrorMessage:            item.ErrorMessage,
	}
	if item.Album != nil {
		view.AlbumID = item.Album.ID
		view.Album = item.Album.Title
	}
	return view
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func buildQueueListRows(items []pending.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		album := "-"
		if item.Album != nil {
			album = item.Album.Title
		}
		status := statusLabel(item.Status)
		if item.ErrorMessage != "" {
			status = fmt.Sprintf("%s (%s)", status, item.ErrorMessage)
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Artist.Name,
			album,
			item.Quality.String(),
			string(item.Protocol),
			status,
			formatTimeleft(item.Timeleft),
		})
	}
	return rows
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projected queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				items, err := a.pending.Project(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					views := make([]queueItemView, 0, len(items))
					for _, item := range items {
						views = append(views, newQueueItemView(item))
					}
					return writeJSON(cmd, views)
				}
				printTable(cmd.OutOrStdout(), "Queue is empty",
					[]column{right("ID"), left("Artist"), left("Album"), left("Quality"), left("Protocol"), left("Status"), right("Time Left")},
					buildQueueListRows(items),
				)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func parseQueueID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id < 0 {
		return 0, services.Wrap(services.ErrValidation, "cli", "parse queue id", fmt.Sprintf("invalid queue id %q", arg), nil)
	}
	return id, nil
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <queue-id>",
		Short: "Show the pending release behind a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQueueID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app) error {
				r, err := a.pending.FindByQueueID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if r == nil {
					return services.Wrap(services.ErrNotFound, "cli", "queue show", fmt.Sprintf("queue item %d not found", id), nil)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader(r.Title, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Pending ID", statusInfo, strconv.FormatInt(r.ID, 10), colorize))
				fmt.Fprintln(out, renderStatusLine("Artist", statusInfo, r.RemoteAlbum.Artist.Name, colorize))
				albums := make([]string, 0, len(r.RemoteAlbum.Albums))
				for _, album := range r.RemoteAlbum.Albums {
					albums = append(albums, album.Title)
				}
				if len(albums) == 0 {
					fmt.Fprintln(out, renderStatusLine("Albums", statusWarn, pending.NoMatchMessage, colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Albums", statusOK, strings.Join(albums, ", "), colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Reason", reasonKind(r.Reason), statusLabel(r.Reason.Label()), colorize))
				fmt.Fprintln(out, renderStatusLine("Quality", statusInfo, r.ParsedAlbumInfo.Quality.String(), colorize))
				fmt.Fprintln(out, renderStatusLine("Indexer", statusInfo, r.Release.String(), colorize))
				fmt.Fprintln(out, renderStatusLine("Published", statusInfo, r.Release.PublishDate.Format(time.RFC3339), colorize))
				fmt.Fprintln(out, renderStatusLine("Custom formats", statusInfo, fmt.Sprintf("%d %v", r.RemoteAlbum.CustomFormatScore, r.RemoteAlbum.CustomFormats), colorize))
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <queue-id>",
		Short: "Remove a queue item and every pending release for the same albums",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQueueID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app) error {
				before, err := a.pending.Pending(cmd.Context())
				if err != nil {
					return err
				}
				if err := a.pending.RemoveQueueItems(cmd.Context(), id); err != nil {
					return err
				}
				after, err := a.pending.Pending(cmd.Context())
				if err != nil {
					return err
				}
				removed := len(before) - len(after)
				if removed == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Queue item %d not found\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d pending release(s)\n", removed)
				return nil
			})
		},
	}
}
