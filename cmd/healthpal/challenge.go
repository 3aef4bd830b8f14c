package healthpal

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Manage challenges and progress",
}

var challengeItemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage challenge target items",
}

var (
	challengeName        string
	challengeDescription string
	challengeUser        string

	challengeItemFlags measurementFlags
	challengeLogFlags  measurementFlags
)

var challengeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a challenge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			c, err := s.svc.CreateChallenge(cmd.Context(), service.ChallengeInput{Name: challengeName, Description: challengeDescription})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created challenge %d (%s)\n", c.ID, c.Name)
			return nil
		})
	},
}

var challengeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List challenges",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			items, err := s.svc.ListChallenges(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tDESCRIPTION")
			for _, c := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
			}
			return nil
		})
	},
}

var challengeItemAddCmd = &cobra.Command{
	Use:   "add <challenge-id>",
	Short: "Add a target item to a challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("challenge id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			m, err := challengeItemFlags.build(cmd.Context(), cmd, s.svc)
			if err != nil {
				return err
			}
			e, err := s.svc.AddChallengeItem(cmd.Context(), id, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added item %d (%s) to challenge %d\n", e.ID, e.ActivityName, id)
			return nil
		})
	},
}

var challengeItemListCmd = &cobra.Command{
	Use:   "list <challenge-id>",
	Short: "List challenge target items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("challenge id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			items, err := s.svc.ChallengeItems(cmd.Context(), id)
			if err != nil {
				return err
			}
			printActivityRows(cmd, items)
			return nil
		})
	},
}

var challengeJoinCmd = &cobra.Command{
	Use:   "join <challenge-id>",
	Short: "Join a challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("challenge id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			p, err := s.svc.JoinChallenge(cmd.Context(), id, challengeUser)
			if err != nil {
				return err
			}
			printProgress(cmd, p)
			return nil
		})
	},
}

var challengeLogCmd = &cobra.Command{
	Use:   "log <challenge-id>",
	Short: "Log a session against a challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("challenge id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			m, err := challengeLogFlags.build(cmd.Context(), cmd, s.svc)
			if err != nil {
				return err
			}
			e, p, err := s.svc.LogChallengeActivity(cmd.Context(), service.ActivityInput{
				UserID:               challengeUser,
				ChallengeID:          &id,
				ActivityMeasurements: m,
			})
			if err != nil {
				return err
			}
			printActivityEntry(cmd, e)
			printProgress(cmd, p)
			return nil
		})
	},
}

var challengeProgressCmd = &cobra.Command{
	Use:   "progress <challenge-id>",
	Short: "Recalculate and show a user's challenge progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("challenge id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			p, err := s.svc.RecalculateProgress(cmd.Context(), id, challengeUser)
			if err != nil {
				return err
			}
			printProgress(cmd, p)
			return nil
		})
	},
}

var challengeFinishCmd = &cobra.Command{
	Use:   "finish <challenge-id>",
	Short: "Mark a challenge as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("challenge id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			p, err := s.svc.FinishChallenge(cmd.Context(), id, challengeUser)
			if err != nil {
				return err
			}
			printProgress(cmd, p)
			return nil
		})
	},
}

func printProgress(cmd *cobra.Command, p model.ChallengeProgress) {
	completed := "no"
	if p.CompletedAt != nil {
		completed = p.CompletedAt.Format(time.RFC3339)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Progress: %.1f%%\nCompleted: %s\nClaimable: %t\n", p.ProgressPercent, completed, p.Claimable())
}

func init() {
	rootCmd.AddCommand(challengeCmd)
	challengeCmd.AddCommand(challengeCreateCmd, challengeListCmd, challengeItemCmd, challengeJoinCmd, challengeLogCmd, challengeProgressCmd, challengeFinishCmd)
	challengeItemCmd.AddCommand(challengeItemAddCmd, challengeItemListCmd)

	challengeCreateCmd.Flags().StringVar(&challengeName, "name", "", "Challenge name")
	challengeCreateCmd.Flags().StringVar(&challengeDescription, "description", "", "Challenge description")
	_ = challengeCreateCmd.MarkFlagRequired("name")

	challengeItemFlags.register(challengeItemAddCmd)
	challengeLogFlags.register(challengeLogCmd)

	for _, c := range []*cobra.Command{challengeJoinCmd, challengeLogCmd, challengeProgressCmd, challengeFinishCmd} {
		c.Flags().StringVar(&challengeUser, "user", "", "User id")
		_ = c.MarkFlagRequired("user")
	}
}
