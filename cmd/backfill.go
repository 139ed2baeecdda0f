package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/recognize"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Compute encodings for stored face images that lack one",
	Long: `Re-encode stored face images for employees without an encoding.
Registrations made while the face recognition models were unavailable
store only the captured image; this command catches them up once the
models are in place.`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().Bool("dry-run", false, "Report what would be encoded without writing anything")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	encoder, err := recognize.NewGoFaceEncoder(cfg.Face.ModelsDir)
	if err != nil {
		if errors.Is(err, recognize.ErrUnavailable) {
			return errors.New("face recognition models are required for backfill; set FACE_MODELS_DIR")
		}
		return fmt.Errorf("loading face recognition models: %w", err)
	}
	defer encoder.Close()

	be, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer be.close()

	ctx := context.Background()

	employees, err := be.stores.Employees.List(ctx)
	if err != nil {
		return fmt.Errorf("listing employees: %w", err)
	}

	var pending []database.Employee
	for i := range employees {
		if len(employees[i].Encoding) == 0 && employees[i].FaceImage != "" {
			pending = append(pending, employees[i])
		}
	}

	if len(pending) == 0 {
		fmt.Println("Nothing to backfill: every stored image already has an encoding")
		return nil
	}

	dryRun := mustGetBool(cmd, "dry-run")
	if dryRun {
		for _, e := range pending {
			fmt.Printf("would encode %s (%s)\n", e.EmployeeID, e.FaceImage)
		}
		fmt.Printf("%d employees pending\n", len(pending))
		return nil
	}

	bar := progressbar.Default(int64(len(pending)), "encoding faces")
	encoded, failed := 0, 0

	for _, e := range pending {
		_ = bar.Add(1)

		raw, err := os.ReadFile(e.FaceImage)
		if err != nil {
			fmt.Printf("\nskipping %s: %v\n", e.EmployeeID, err)
			failed++
			continue
		}
		jpegBytes, err := recognize.NormalizeJPEG(raw, cfg.MaxImageSize())
		if err != nil {
			fmt.Printf("\nskipping %s: %v\n", e.EmployeeID, err)
			failed++
			continue
		}
		encodings, err := encoder.Encode(jpegBytes)
		if err != nil {
			fmt.Printf("\nskipping %s: %v\n", e.EmployeeID, err)
			failed++
			continue
		}
		if len(encodings) == 0 {
			fmt.Printf("\nskipping %s: no face detected in stored image\n", e.EmployeeID)
			failed++
			continue
		}

		if err := be.stores.Employees.UpdateFace(ctx, e.EmployeeID, e.FaceImage, encodings[0]); err != nil {
			fmt.Printf("\nfailed to store encoding for %s: %v\n", e.EmployeeID, err)
			failed++
			continue
		}
		encoded++
	}

	fmt.Printf("\nBackfill complete: %d encoded, %d skipped\n", encoded, failed)
	return nil
}
