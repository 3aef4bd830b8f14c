package healthpal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Record and inspect fitness profiles",
}

var (
	profileUser     string
	profileWeight   float64
	profileHeight   float64
	profileWaist    float64
	profileHip      float64
	profileNeck     float64
	profileActivity string
	profileMethods  []string
)

var profileRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record body measurements and derive BMR, BMI and TDEE",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.ProfileInput{
			WeightKg:       profileWeight,
			HeightCm:       profileHeight,
			WaistCm:        optFloat(cmd, "waist", profileWaist),
			HipCm:          optFloat(cmd, "hip", profileHip),
			NeckCm:         optFloat(cmd, "neck", profileNeck),
			ActivityLevel:  profileActivity,
			BodyFatMethods: profileMethods,
		}
		return withService(cmd, func(s *session) error {
			p, err := s.svc.RecordProfile(cmd.Context(), profileUser, in)
			if err != nil {
				return err
			}
			printProfile(cmd, p)
			return nil
		})
	},
}

var profileCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the latest profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			p, err := s.svc.CurrentProfile(cmd.Context(), profileUser)
			if err != nil {
				return err
			}
			printProfile(cmd, p)
			return nil
		})
	},
}

var profileHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List profiles, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			items, err := s.svc.ProfileHistory(cmd.Context(), profileUser)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tCREATED\tWEIGHT\tBMI\tBMR\tTDEE")
			for _, p := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%.1f\t%.2f\t%.2f\t%.2f\n", p.ID, p.CreatedAt.Format("2006-01-02 15:04"), p.WeightKg, p.BMI, p.BMR, p.TDEEKcal)
			}
			return nil
		})
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <profile-id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("profile id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			if err := s.svc.DeleteProfile(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %d\n", id)
			return nil
		})
	},
}

func printProfile(cmd *cobra.Command, p model.FitnessProfile) {
	fmt.Fprintf(cmd.OutOrStdout(), "Profile %d\nWeight: %.1f kg\nHeight: %.1f cm\nActivity level: %s\nBMR: %.2f kcal\nBMI: %.2f\nTDEE: %.2f kcal\n",
		p.ID, p.WeightKg, p.HeightCm, p.ActivityLevel, p.BMR, p.BMI, p.TDEEKcal)
	methods := make([]string, 0, len(p.BodyFatPercentages))
	for m := range p.BodyFatPercentages {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	for _, m := range methods {
		fmt.Fprintf(cmd.OutOrStdout(), "Body fat (%s): %.1f%%\n", strings.ReplaceAll(m, "_", " "), p.BodyFatPercentages[m])
	}
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileRecordCmd, profileCurrentCmd, profileHistoryCmd, profileDeleteCmd)

	for _, c := range []*cobra.Command{profileRecordCmd, profileCurrentCmd, profileHistoryCmd} {
		c.Flags().StringVar(&profileUser, "user", "", "User id")
		_ = c.MarkFlagRequired("user")
	}
	profileRecordCmd.Flags().Float64Var(&profileWeight, "weight", 0, "Weight in kg")
	profileRecordCmd.Flags().Float64Var(&profileHeight, "height", 0, "Height in cm")
	profileRecordCmd.Flags().Float64Var(&profileWaist, "waist", 0, "Waist circumference in cm")
	profileRecordCmd.Flags().Float64Var(&profileHip, "hip", 0, "Hip circumference in cm")
	profileRecordCmd.Flags().Float64Var(&profileNeck, "neck", 0, "Neck circumference in cm")
	profileRecordCmd.Flags().StringVar(&profileActivity, "activity-level", "sedentary", "sedentary|lightly_active|moderate|active|very_active")
	profileRecordCmd.Flags().StringSliceVar(&profileMethods, "body-fat-method", nil, "Body fat methods (bmi, us_navy, ymca)")
	_ = profileRecordCmd.MarkFlagRequired("weight")
	_ = profileRecordCmd.MarkFlagRequired("height")
}
