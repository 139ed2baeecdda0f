package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/recognize"
)

var registerCmd = &cobra.Command{
	Use:   "register <employee-id> <image-path>",
	Short: "Register a face for an employee from an image file",
	Long: `Register a face for an existing employee from an image on disk.
The image is normalized to JPEG, encoded with the face recognition models,
and stored together with its encoding. Without the models the image is
stored alone; run backfill later to compute the encoding.`,
	Args: cobra.ExactArgs(2),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	employeeID, imagePath := args[0], args[1]
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

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	jpegBytes, err := recognize.NormalizeJPEG(raw, cfg.MaxImageSize())
	if err != nil {
		return fmt.Errorf("normalizing image: %w", err)
	}

	var encoding []float32
	if encoder := openEncoder(cfg); encoder != nil {
		defer encoder.Close()

		encodings, err := encoder.Encode(jpegBytes)
		if err != nil {
			return fmt.Errorf("encoding face: %w", err)
		}
		if len(encodings) == 0 {
			return fmt.Errorf("no face detected in %s", imagePath)
		}
		encoding = encodings[0]
	}

	if err := os.MkdirAll(cfg.Face.ImagesDir, 0o755); err != nil {
		return fmt.Errorf("creating images directory: %w", err)
	}
	stored := filepath.Join(cfg.Face.ImagesDir, fmt.Sprintf("%s_%s.jpg", employeeID, uuid.NewString()))
	if err := os.WriteFile(stored, jpegBytes, 0o644); err != nil {
		return fmt.Errorf("storing image: %w", err)
	}

	if err := be.stores.Employees.UpdateFace(ctx, employeeID, stored, encoding); err != nil {
		return fmt.Errorf("updating face: %w", err)
	}

	if len(encoding) > 0 {
		fmt.Printf("Registered face for %s (image %s, encoding stored)\n", employeeID, stored)
	} else {
		fmt.Printf("Stored image for %s without an encoding (models unavailable)\n", employeeID)
	}
	return nil
}
