package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/plant-care/internal/bootstrap"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Reminder commands",
}

var dueRemindersCmd = &cobra.Command{
	Use:   "due",
	Short: "List open reminders due on or before a date",
	RunE:  runDueReminders,
}

var (
	dueOwner   string
	dueThrough string
)

func init() {
	rootCmd.AddCommand(remindersCmd)
	remindersCmd.AddCommand(dueRemindersCmd)
	dueRemindersCmd.Flags().StringVar(&dueOwner, "owner", "", "owner id (empty for the anonymous owner)")
	dueRemindersCmd.Flags().StringVar(&dueThrough, "through", "", "last due date to include, YYYY-MM-DD (default today)")
}

func runDueReminders(cmd *cobra.Command, _ []string) error {
	through := time.Now().UTC()
	if dueThrough != "" {
		parsed, err := time.Parse("2006-01-02", dueThrough)
		if err != nil {
			return fmt.Errorf("invalid --through date: %w", err)
		}
		through = parsed
	}

	return withApp(func(app *bootstrap.App) error {
		reminders, err := app.Plants().DueReminders(cmd.Context(), dueOwner, through)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPLANT\tTYPE\tDUE")
		for _, r := range reminders {
			name := fmt.Sprintf("#%d", r.PlantID)
			if r.Plant != nil {
				name = r.Plant.Name
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, name, r.Type, r.DueDate.Format("2006-01-02"))
		}
		return w.Flush()
	})
}
