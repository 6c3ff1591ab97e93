package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pkordes/atag/internal/domain"
	"github.com/pkordes/atag/internal/service"
)

// newNotesCmd creates the notes command with get and set subcommands.
// A note is addressed either by tagged entity id or by tag id plus entity.
func newNotesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Read and write notes on tagged entities",
	}
	cmd.AddCommand(newNotesGetCmd(flags))
	cmd.AddCommand(newNotesSetCmd(flags))
	return cmd
}

// noteTarget identifies a note from positional arguments:
// TAGGED_ENTITY_ID, or TAG_ID ENTITY_TYPE ENTITY_KEY.
type noteTarget struct {
	taggedEntityID uuid.UUID
	tagID          uuid.UUID
	entity         *domain.EntityRef
}

func parseNoteTarget(args []string) (noteTarget, error) {
	switch len(args) {
	case 1:
		id, err := uuid.Parse(args[0])
		if err != nil {
			return noteTarget{}, fmt.Errorf("invalid tagged entity id: %w", err)
		}
		return noteTarget{taggedEntityID: id}, nil
	case 3:
		id, err := uuid.Parse(args[0])
		if err != nil {
			return noteTarget{}, fmt.Errorf("invalid tag id: %w", err)
		}
		return noteTarget{tagID: id, entity: &domain.EntityRef{Type: args[1], Key: args[2]}}, nil
	default:
		return noteTarget{}, fmt.Errorf("expected TAGGED_ENTITY_ID or TAG_ID ENTITY_TYPE ENTITY_KEY, got %d argument(s)", len(args))
	}
}

func newNotesGetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get (TAGGED_ENTITY_ID | TAG_ID ENTITY_TYPE ENTITY_KEY)",
		Short: "Print a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseNoteTarget(args)
			if err != nil {
				return err
			}
			return withTagService(cmd.Context(), flags, func(svc *service.TagService) error {
				var note string
				if target.entity != nil {
					note, err = svc.LoadTagNoteByEntity(cmd.Context(), target.tagID, *target.entity)
				} else {
					note, err = svc.LoadTagNote(cmd.Context(), target.taggedEntityID)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), note)
				return nil
			})
		},
	}
}

func newNotesSetCmd(flags *globalFlags) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "set (TAGGED_ENTITY_ID | TAG_ID ENTITY_TYPE ENTITY_KEY) --text NOTE",
		Short: "Create or replace a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := flags.requireUser()
			if err != nil {
				return err
			}
			target, err := parseNoteTarget(args)
			if err != nil {
				return err
			}
			return withTagService(cmd.Context(), flags, func(svc *service.TagService) error {
				if target.entity != nil {
					return svc.EditTagNoteByEntity(cmd.Context(), target.tagID, *target.entity, text, userID)
				}
				return svc.EditTagNote(cmd.Context(), target.taggedEntityID, text, userID)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "note text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
