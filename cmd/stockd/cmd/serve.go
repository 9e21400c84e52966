package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	Long:  `Runs the API server together with the background update loop and the realtime price manager. Stop with Ctrl+C.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 Starting API server...")

	apiCmd := exec.Command("go", "run", "./cmd/api")
	apiCmd.Stdout = os.Stdout
	apiCmd.Stderr = os.Stderr
	apiCmd.Env = os.Environ()

	if err := apiCmd.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	exited := make(chan error, 1)
	go func() { exited <- apiCmd.Wait() }()

	select {
	case err := <-exited:
		return err
	case <-sigCh:
		fmt.Println("\n🛑 Shutdown signal received, stopping server...")
		apiCmd.Process.Signal(syscall.SIGTERM)
		<-exited
	}

	fmt.Println("✅ API server stopped")
	return nil
}
