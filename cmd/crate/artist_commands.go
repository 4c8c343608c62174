package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"crate/internal/catalog"
	"crate/internal/events"
	"crate/internal/services"
)

func newArtistCommand(ctx *commandContext) *cobra.Command {
	artistCmd := &cobra.Command{
		Use:   "artist",
		Short: "Manage catalog artists",
	}

	artistCmd.AddCommand(newArtistAddCommand(ctx))
	artistCmd.AddCommand(newArtistListCommand(ctx))
	artistCmd.AddCommand(newArtistDeleteCommand(ctx))

	return artistCmd
}

func newArtistAddCommand(ctx *commandContext) *cobra.Command {
	var tags []int
	var unmonitored bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an artist on the default quality profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				profile, err := a.catalog.EnsureDefaultQualityProfile(cmd.Context())
				if err != nil {
					return err
				}
				artist, err := a.catalog.AddArtist(cmd.Context(), catalog.Artist{
					Name:             args[0],
					QualityProfileID: profile.ID,
					Tags:             tags,
					Monitored:        !unmonitored,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added artist %d: %s\n", artist.ID, artist.Name)
				return nil
			})
		},
	}
	cmd.Flags().IntSliceVar(&tags, "tag", nil, "Tag id (repeatable)")
	cmd.Flags().BoolVar(&unmonitored, "unmonitored", false, "Add the artist unmonitored")
	return cmd
}

func formatTags(tags []int) string {
	if len(tags) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, strconv.Itoa(tag))
	}
	return strings.Join(parts, ",")
}

func newArtistListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List artists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				artists, err := a.catalog.Artists(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(artists))
				for _, artist := range artists {
					rows = append(rows, []string{
						strconv.FormatInt(artist.ID, 10),
						artist.Name,
						artist.QualityProfile.Name,
						formatTags(artist.Tags),
						yesNo(artist.Monitored),
					})
				}
				printTable(cmd.OutOrStdout(), "No artists",
					[]column{right("ID"), left("Name"), left("Profile"), left("Tags"), left("Monitored")},
					rows,
				)
				return nil
			})
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, services.Wrap(services.ErrValidation, "cli", "parse id", fmt.Sprintf("invalid id %q", arg), nil)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newArtistDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <artist-id>...",
		Short: "Delete artists with their albums and pending releases",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app) error {
				n, err := a.catalog.DeleteArtists(cmd.Context(), ids)
				if err != nil {
					return err
				}
				if err := a.bus.Dispatch(cmd.Context(), events.ArtistsDeleted{ArtistIDs: ids}); err != nil {
					return fmt.Errorf("deleted %d artist(s) but pending cleanup failed: %w", n, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d artist(s)\n", n)
				return nil
			})
		},
	}
}

func newAlbumCommand(ctx *commandContext) *cobra.Command {
	albumCmd := &cobra.Command{
		Use:   "album",
		Short: "Manage catalog albums",
	}
	albumCmd.AddCommand(newAlbumAddCommand(ctx))
	albumCmd.AddCommand(newAlbumListCommand(ctx))
	return albumCmd
}

func newAlbumAddCommand(ctx *commandContext) *cobra.Command {
	var releaseDate string

	cmd := &cobra.Command{
		Use:   "add <artist-id> <title>",
		Short: "Add an album to an artist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:1])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app) error {
				album, err := a.catalog.AddAlbum(cmd.Context(), catalog.Album{
					ArtistID:    ids[0],
					Title:       args[1],
					ReleaseDate: releaseDate,
					Monitored:   true,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added album %d: %s\n", album.ID, album.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&releaseDate, "release-date", "", "Release date (YYYY-MM-DD)")
	return cmd
}

func newAlbumListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <artist-id>",
		Short: "List an artist's albums",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app) error {
				albums, err := a.catalog.AlbumsByArtistID(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(albums))
				for _, album := range albums {
					rows = append(rows, []string{
						strconv.FormatInt(album.ID, 10),
						album.Title,
						album.ReleaseDate,
						yesNo(album.Monitored),
					})
				}
				printTable(cmd.OutOrStdout(), "No albums",
					[]column{right("ID"), left("Title"), left("Released"), left("Monitored")},
					rows,
				)
				return nil
			})
		},
	}
}
