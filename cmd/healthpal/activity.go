package healthpal

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Manage activity types",
}

var (
	activityName string
	activityMET  float64
)

var activityAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an activity type",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			a, err := s.svc.CreateActivity(cmd.Context(), service.ActivityTypeInput{Name: activityName, METValue: activityMET})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity %d (%s, MET %.1f)\n", a.ID, a.Name, a.METValue)
			return nil
		})
	},
}

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List activity types",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			items, err := s.svc.ListActivities(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tMET")
			for _, a := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%.1f\n", a.ID, a.Name, a.METValue)
			}
			return nil
		})
	},
}

// measurementFlags are the activity measurement flags shared by the
// activity logging and challenge item commands.
type measurementFlags struct {
	activity  string
	minutes   float64
	hours     float64
	reps      int
	load      float64
	distance  float64
	rhr       int
	ahr       int
	intensity int
}

func (f *measurementFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.activity, "activity", "", "Activity type id or name")
	cmd.Flags().Float64Var(&f.minutes, "minutes", 0, "Duration in minutes")
	cmd.Flags().Float64Var(&f.hours, "hours", 0, "Duration in hours")
	cmd.Flags().IntVar(&f.reps, "reps", 0, "Repetitions")
	cmd.Flags().Float64Var(&f.load, "load", 0, "Carried load in kg")
	cmd.Flags().Float64Var(&f.distance, "distance", 0, "Distance in km")
	cmd.Flags().IntVar(&f.rhr, "rhr", 0, "Resting heart rate")
	cmd.Flags().IntVar(&f.ahr, "ahr", 0, "Average heart rate")
	cmd.Flags().IntVar(&f.intensity, "intensity", 0, "Perceived intensity 1-5")
	_ = cmd.MarkFlagRequired("activity")
}

func (f *measurementFlags) build(ctx context.Context, cmd *cobra.Command, svc *service.Service) (service.ActivityMeasurements, error) {
	a, err := svc.ResolveActivity(ctx, f.activity)
	if err != nil {
		return service.ActivityMeasurements{}, err
	}
	return service.ActivityMeasurements{
		ActivityID:      a.ID,
		DurationMinutes: optFloat(cmd, "minutes", f.minutes),
		Hours:           optFloat(cmd, "hours", f.hours),
		Reps:            optInt(cmd, "reps", f.reps),
		LoadKg:          optFloat(cmd, "load", f.load),
		DistanceKm:      optFloat(cmd, "distance", f.distance),
		RHR:             optInt(cmd, "rhr", f.rhr),
		AHR:             optInt(cmd, "ahr", f.ahr),
		IntensityLevel:  optInt(cmd, "intensity", f.intensity),
	}, nil
}

func printActivityEntry(cmd *cobra.Command, e model.ActivityEntry) {
	fmt.Fprintf(cmd.OutOrStdout(), "Activity entry %d: %s, %.2f kcal via %s\n", e.ID, e.ActivityName, e.KcalBurned, e.EstimateMethod)
	if e.EstimateNotes != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Notes: %s\n", e.EstimateNotes)
	}
}

func printActivityRows(cmd *cobra.Command, items []model.ActivityEntry) {
	fmt.Fprintln(cmd.OutOrStdout(), "ID\tACTIVITY\tHOURS\tREPS\tDIST\tLOAD\tKCAL\tMETHOD")
	for _, e := range items {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			e.ID, e.ActivityName, fmtOptFloat(e.Hours), fmtOptInt(e.Reps), fmtOptFloat(e.DistanceKm), fmtOptFloat(e.LoadKg), e.KcalBurned, e.EstimateMethod)
	}
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.AddCommand(activityAddCmd, activityListCmd)

	activityAddCmd.Flags().StringVar(&activityName, "name", "", "Activity name")
	activityAddCmd.Flags().Float64Var(&activityMET, "met", 0, "MET value")
	_ = activityAddCmd.MarkFlagRequired("name")
	_ = activityAddCmd.MarkFlagRequired("met")
}
