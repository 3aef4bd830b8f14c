package healthpal

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var (
	userName      string
	userBirthDate string
	userSex       string
	userWeight    float64
)

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.UserInput{
			Name:     userName,
			Sex:      userSex,
			WeightKg: optFloat(cmd, "weight", userWeight),
		}
		if s := strings.TrimSpace(userBirthDate); s != "" {
			bd, err := time.Parse("2006-01-02", s)
			if err != nil {
				return fmt.Errorf("invalid --birth-date %q (expected YYYY-MM-DD)", userBirthDate)
			}
			in.BirthDate = &bd
		}
		return withService(cmd, func(s *session) error {
			u, err := s.svc.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.ID, u.Name)
			return nil
		})
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			u, err := s.svc.User(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printUser(cmd, u)
			return nil
		})
	},
}

func printUser(cmd *cobra.Command, u model.User) {
	bd := "-"
	if u.BirthDate != nil {
		bd = u.BirthDate.Format("2006-01-02")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ID: %s\nName: %s\nSex: %s\nBirth date: %s\nWeight: %s kg\n", u.ID, u.Name, u.Sex, bd, fmtOptFloat(u.WeightKg))
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userShowCmd)

	userAddCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userAddCmd.Flags().StringVar(&userBirthDate, "birth-date", "", "Birth date YYYY-MM-DD")
	userAddCmd.Flags().StringVar(&userSex, "sex", "", "Sex (male|female)")
	userAddCmd.Flags().Float64Var(&userWeight, "weight", 0, "Bodyweight in kg")
	_ = userAddCmd.MarkFlagRequired("name")
	_ = userAddCmd.MarkFlagRequired("sex")
}
