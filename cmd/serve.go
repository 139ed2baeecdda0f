package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the Face Attendance web server.
The server exposes the JSON API for webcam check-ins, face registration,
attendance dashboards and spreadsheet exports.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (defaults to random)")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

// buildDuplicateIndex loads every stored encoding into the in-memory HNSW
// index used by the duplicate-face guard during registration.
func buildDuplicateIndex(ctx context.Context, stores database.Stores) *database.DuplicateIndex {
	fmt.Printf("Building in-memory HNSW index over stored face encodings...\n")
	employees, err := stores.Employees.ListWithEncoding(ctx)
	if err != nil {
		fmt.Printf("Warning: failed to load stored encodings: %v\n", err)
		fmt.Printf("Duplicate-face warnings are disabled for this run\n")
		return database.NewDuplicateIndex(nil)
	}
	idx := database.NewDuplicateIndex(employees)
	fmt.Printf("Face index built with %d encodings\n", idx.Count())
	return idx
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	be, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer be.close()

	encoder := openEncoder(cfg)
	if encoder != nil {
		defer encoder.Close()
	}

	dedup := buildDuplicateIndex(context.Background(), be.stores)
	port, host, sessionSecret := resolveServeHostPort(cmd)

	server := web.NewServer(cfg, port, host, sessionSecret, be.sessionRepo, be.stores, encoder, dedup)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attendance on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
