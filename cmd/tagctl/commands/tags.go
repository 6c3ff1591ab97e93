package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pkordes/atag/internal/domain"
	"github.com/pkordes/atag/internal/service"
)

// newTagsCmd creates the tags command with add, list, edit and delete subcommands.
func newTagsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage tags",
	}
	cmd.AddCommand(newTagsAddCmd(flags))
	cmd.AddCommand(newTagsListCmd(flags))
	cmd.AddCommand(newTagsEditCmd(flags))
	cmd.AddCommand(newTagsDeleteCmd(flags))
	return cmd
}

func newTagsAddCmd(flags *globalFlags) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "add NAME --owner TYPE:ID",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := flags.requireUser()
			if err != nil {
				return err
			}
			o, err := domain.ParseOwnerFilter(owner)
			if err != nil {
				return err
			}
			return withTagService(cmd.Context(), flags, func(svc *service.TagService) error {
				id, err := svc.AddTag(cmd.Context(), service.AddTagRequest{
					Name:      args[0],
					OwnerType: o.OwnerType,
					OwnerID:   o.OwnerID,
					UserID:    userID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner as TYPE:ID, e.g. team:2 or personal:7")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newTagsListCmd(flags *globalFlags) *cobra.Command {
	var owners []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live tags, optionally restricted to owners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters, err := parseOwners(owners)
			if err != nil {
				return err
			}
			return withTagService(cmd.Context(), flags, func(svc *service.TagService) error {
				tags, err := svc.LoadTags(cmd.Context(), filters...)
				if err != nil {
					return err
				}
				return printTags(cmd.OutOrStdout(), tags)
			})
		},
	}
	cmd.Flags().StringArrayVar(&owners, "owner", nil, "owner as TYPE:ID; repeat for several owners")
	return cmd
}

func newTagsEditCmd(flags *globalFlags) *cobra.Command {
	var (
		name  string
		owner string
	)
	cmd := &cobra.Command{
		Use:   "edit TAG_ID --name NAME --owner TYPE:ID",
		Short: "Rename and/or re-own a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := flags.requireUser()
			if err != nil {
				return err
			}
			tagID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid tag id: %w", err)
			}
			o, err := domain.ParseOwnerFilter(owner)
			if err != nil {
				return err
			}
			return withTagService(cmd.Context(), flags, func(svc *service.TagService) error {
				return svc.EditTag(cmd.Context(), service.EditTagRequest{
					TagID:     tagID,
					Name:      name,
					OwnerType: o.OwnerType,
					OwnerID:   o.OwnerID,
					UserID:    userID,
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new tag name")
	cmd.Flags().StringVar(&owner, "owner", "", "new owner as TYPE:ID")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newTagsDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TAG_ID",
		Short: "Soft-delete a tag; its tagged entities are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := flags.requireUser()
			if err != nil {
				return err
			}
			tagID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid tag id: %w", err)
			}
			return withTagService(cmd.Context(), flags, func(svc *service.TagService) error {
				return svc.DeleteTag(cmd.Context(), tagID, userID)
			})
		},
	}
}

// parseOwners parses every --owner value.
func parseOwners(values []string) ([]domain.OwnerFilter, error) {
	filters := make([]domain.OwnerFilter, 0, len(values))
	for _, v := range values {
		f, err := domain.ParseOwnerFilter(v)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// printTags writes tags as an aligned table.
func printTags(out io.Writer, tags []domain.Tag) error {
	if len(tags) == 0 {
		fmt.Fprintln(out, "No tags found")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tOWNER\tCREATED")
	for _, t := range tags {
		fmt.Fprintf(tw, "%s\t%s\t%s:%s\t%s\n", t.ID, t.Name, t.OwnerType, t.OwnerID, t.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
