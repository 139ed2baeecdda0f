package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "List registered employees",
	RunE:  runEmployees,
}

func init() {
	rootCmd.AddCommand(employeesCmd)

	employeesCmd.Flags().Bool("faces-only", false, "Only list employees with a stored face encoding")
}

func runEmployees(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	be, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer be.close()

	ctx := context.Background()

	var employees []database.Employee
	if mustGetBool(cmd, "faces-only") {
		employees, err = be.stores.Employees.ListWithEncoding(ctx)
	} else {
		employees, err = be.stores.Employees.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("listing employees: %w", err)
	}

	if len(employees) == 0 {
		fmt.Println("No employees registered")
		return nil
	}

	for _, e := range employees {
		face := " "
		if len(e.Encoding) > 0 {
			face = "*"
		}
		admin := ""
		if e.IsAdmin {
			admin = " (admin)"
		}
		fmt.Printf("%s %-12s %-30s %s%s\n", face, e.EmployeeID, e.Identity().DisplayName(), e.Department, admin)
	}
	fmt.Printf("\n%d employees (* = face registered)\n", len(employees))
	return nil
}
