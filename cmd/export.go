package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export <employee-id>",
	Short: "Export an employee's attendance as an XLSX spreadsheet",
	Long: `Export the reconciled attendance calendar for one employee over an
explicit date range. Days without a check-in appear as Absent. The
spreadsheet includes summary counts and charts.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("start", "", "Start date (YYYY-MM-DD, required)")
	exportCmd.Flags().String("end", "", "End date (YYYY-MM-DD, required)")
	exportCmd.Flags().String("output", "", "Output file (defaults to <employee>_<start>_to_<end>.xlsx)")
	_ = exportCmd.MarkFlagRequired("start")
	_ = exportCmd.MarkFlagRequired("end")
}

func runExport(cmd *cobra.Command, args []string) error {
	employeeID := args[0]

	start, err := time.Parse(attendance.DateLayout, mustGetString(cmd, "start"))
	if err != nil {
		return fmt.Errorf("invalid --start date: %w", err)
	}
	end, err := time.Parse(attendance.DateLayout, mustGetString(cmd, "end"))
	if err != nil {
		return fmt.Errorf("invalid --end date: %w", err)
	}

	cfg := config.Load()
	be, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer be.close()

	ctx := context.Background()

	employee, err := be.stores.Employees.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("looking up employee: %w", err)
	}
	if employee == nil {
		return fmt.Errorf("employee %q does not exist", employeeID)
	}

	identity := employee.Identity()
	reconciler := attendance.NewReconciler(be.stores.Attendance)
	entries, err := reconciler.Reconcile(ctx, []attendance.Identity{identity}, start, end)
	if err != nil {
		return fmt.Errorf("reconciling attendance: %w", err)
	}

	output := mustGetString(cmd, "output")
	if output == "" {
		output = report.Filename(employeeID, start, end)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := report.Write(f, identity, entries); err != nil {
		return fmt.Errorf("writing spreadsheet: %w", err)
	}

	fmt.Printf("Exported %d days for %s to %s\n", len(entries), employeeID, output)
	return nil
}
