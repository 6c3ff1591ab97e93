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

// newEntitiesCmd creates the entities command with tag, untag and list subcommands.
func newEntitiesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Apply tags to external entities",
	}
	cmd.AddCommand(newEntitiesTagCmd(flags))
	cmd.AddCommand(newEntitiesUntagCmd(flags))
	cmd.AddCommand(newEntitiesListCmd(flags))
	return cmd
}

func newEntitiesTagCmd(flags *globalFlags) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "tag ENTITY_TYPE ENTITY_KEY TAG_ID...",
		Short: "Apply one or more tags to an entity",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := flags.requireUser()
			if err != nil {
				return err
			}
			tagIDs, err := parseTagIDs(args[2:])
			if err != nil {
				return err
			}
			return withTagService(cmd.Context(), flags, func(svc *service.TagService) error {
				return svc.TagEntity(cmd.Context(), service.TagEntityRequest{
					TagIDs:     tagIDs,
					EntityType: args[0],
					EntityKey:  args[1],
					Note:       note,
					UserID:     userID,
				})
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note attached to each new association")
	return cmd
}

func newEntitiesUntagCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "untag ENTITY_TYPE ENTITY_KEY TAG_ID",
		Short: "Remove a tag from an entity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := flags.requireUser(); err != nil {
				return err
			}
			tagID, err := uuid.Parse(args[2])
			if err != nil {
				return fmt.Errorf("invalid tag id: %w", err)
			}
			entity := domain.EntityRef{Type: args[0], Key: args[1]}
			return withTagService(cmd.Context(), flags, func(svc *service.TagService) error {
				return svc.DeleteTaggedEntity(cmd.Context(), tagID, entity)
			})
		},
	}
}

func newEntitiesListCmd(flags *globalFlags) *cobra.Command {
	var owners []string
	cmd := &cobra.Command{
		Use:   "list (TAG_ID | ENTITY_TYPE ENTITY_KEY)",
		Short: "List the entities of a tag, or the tags of an entity",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				filters, err := parseOwners(owners)
				if err != nil {
					return err
				}
				entity := domain.EntityRef{Type: args[0], Key: args[1]}
				return withTagService(cmd.Context(), flags, func(svc *service.TagService) error {
					tags, err := svc.LoadEntityTags(cmd.Context(), entity, filters...)
					if err != nil {
						return err
					}
					return printTags(cmd.OutOrStdout(), tags)
				})
			}

			tagID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid tag id: %w", err)
			}
			return withTagService(cmd.Context(), flags, func(svc *service.TagService) error {
				entities, err := svc.LoadTaggedEntities(cmd.Context(), tagID)
				if err != nil {
					return err
				}
				return printTaggedEntities(cmd.OutOrStdout(), entities)
			})
		},
	}
	cmd.Flags().StringArrayVar(&owners, "owner", nil, "restrict an entity's tags to owner TYPE:ID; repeatable")
	return cmd
}

// parseTagIDs parses each argument as a tag id.
func parseTagIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, a := range args {
		id, err := uuid.Parse(a)
		if err != nil {
			return nil, fmt.Errorf("invalid tag id %q: %w", a, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// printTaggedEntities writes tagged entities as an aligned table.
func printTaggedEntities(out io.Writer, entities []domain.TaggedEntity) error {
	if len(entities) == 0 {
		fmt.Fprintln(out, "No tagged entities found")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tENTITY\tTAGGED BY\tTAGGED AT\tNOTE")
	for _, e := range entities {
		fmt.Fprintf(tw, "%s\t%s/%s\t%d\t%s\t%s\n",
			e.ID, e.EntityType, e.EntityKey, e.CreatedBy, e.CreatedAt.Format(time.RFC3339), e.NoteText())
	}
	return tw.Flush()
}
