package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"crate/internal/delay"
	"crate/internal/release"
	"crate/internal/services"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect quality and delay profiles",
	}

	delayCmd := &cobra.Command{
		Use:   "delay",
		Short: "Manage delay profiles",
	}
	delayCmd.AddCommand(newDelayListCommand(ctx))
	delayCmd.AddCommand(newDelayAddCommand(ctx))
	delayCmd.AddCommand(newDelayDefaultCommand(ctx))

	profileCmd.AddCommand(delayCmd)
	profileCmd.AddCommand(newQualityListCommand(ctx))
	return profileCmd
}

type delayFlags struct {
	usenetDelay   int
	torrentDelay  int
	preferred     string
	disableUsenet bool
	disableTorrent bool
}

func (f *delayFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.usenetDelay, "usenet-delay", 0, "Usenet delay in minutes")
	cmd.Flags().IntVar(&f.torrentDelay, "torrent-delay", 0, "Torrent delay in minutes")
	cmd.Flags().StringVar(&f.preferred, "preferred", "usenet", "Preferred protocol (usenet or torrent)")
	cmd.Flags().BoolVar(&f.disableUsenet, "no-usenet", false, "Disable usenet")
	cmd.Flags().BoolVar(&f.disableTorrent, "no-torrent", false, "Disable torrent")
}

func (f *delayFlags) profile(tags []int) (delay.Profile, error) {
	preferred, err := release.ParseProtocol(f.preferred)
	if err != nil {
		return delay.Profile{}, services.Wrap(services.ErrValidation, "cli", "delay profile", "preferred protocol", err)
	}
	return delay.Profile{
		EnableUsenet:      !f.disableUsenet,
		EnableTorrent:     !f.disableTorrent,
		PreferredProtocol: preferred,
		UsenetDelay:       f.usenetDelay,
		TorrentDelay:      f.torrentDelay,
		Tags:              tags,
	}, nil
}

func newDelayListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List delay profiles in evaluation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				profiles, err := a.delays.All(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(profiles))
				for _, p := range profiles {
					order := strconv.Itoa(p.Order)
					if p.IsDefault() {
						order = "default"
					}
					rows = append(rows, []string{
						order,
						formatTags(p.Tags),
						string(p.PreferredProtocol),
						protocolDelay(p.EnableUsenet, p.UsenetDelay),
						protocolDelay(p.EnableTorrent, p.TorrentDelay),
					})
				}
				printTable(cmd.OutOrStdout(), "No delay profiles",
					[]column{left("Order"), left("Tags"), left("Preferred"), right("Usenet"), right("Torrent")},
					rows,
				)
				return nil
			})
		},
	}
}

func protocolDelay(enabled bool, minutes int) string {
	if !enabled {
		return "off"
	}
	return fmt.Sprintf("%dm", minutes)
}

func newDelayAddCommand(ctx *commandContext) *cobra.Command {
	var flags delayFlags
	var tags []int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a tagged delay profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := flags.profile(tags)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app) error {
				added, err := a.delays.Add(cmd.Context(), profile)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added delay profile %d for tags %s\n", added.ID, formatTags(added.Tags))
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().IntSliceVar(&tags, "tag", nil, "Tag id (repeatable, required)")
	return cmd
}

func newDelayDefaultCommand(ctx *commandContext) *cobra.Command {
	var flags delayFlags

	cmd := &cobra.Command{
		Use:   "default",
		Short: "Update the catch-all delay profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := flags.profile(nil)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app) error {
				if err := a.delays.UpdateDefault(cmd.Context(), profile); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Updated default delay profile")
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newQualityListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "quality",
		Short: "List quality profiles, lowest tier first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				profiles, err := a.catalog.QualityProfiles(cmd.Context())
				if err != nil {
					return err
				}
				var rows [][]string
				for _, p := range profiles {
					for rank, item := range p.Items {
						name := item.Name
						var members []string
						if item.Quality != nil {
							name = item.Quality.Name
						}
						for _, member := range item.Items {
							if member.Quality != nil {
								members = append(members, member.Quality.Name)
							}
						}
						rows = append(rows, []string{p.Name, strconv.Itoa(rank), name, strings.Join(members, ", "), yesNo(item.Allowed)})
					}
				}
				printTable(cmd.OutOrStdout(), "No quality profiles",
					[]column{left("Profile"), right("Rank"), left("Tier"), left("Qualities"), left("Allowed")},
					rows,
				)
				return nil
			})
		},
	}
}
