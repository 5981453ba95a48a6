package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mxl-space/gr-hdfs/internal/hdfstest"
	"github.com/mxl-space/gr-hdfs/internal/logger"
	"github.com/spf13/cobra"
)

var (
	mockListen    string
	mockRedirects bool
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run an in-memory WebHDFS server for local testing",
	Long: `Serve an in-memory implementation of the WebHDFS REST API.

Useful for exercising sink and source pipelines without a cluster. Files
live in memory and are lost on exit. With --redirects the server mimics the
namenode→datanode 307 handoff on writes.

Examples:
  gr-hdfs mock --listen :50070
  gr-hdfs sink --file test.bin   # against GRHDFS_WEBHDFS_ADDRESS=localhost:50070`,
	RunE: runMock,
}

func init() {
	mockCmd.Flags().StringVar(&mockListen, "listen", ":50070", "Listen address")
	mockCmd.Flags().BoolVar(&mockRedirects, "redirects", false, "Mimic namenode→datanode redirects on writes")
	rootCmd.AddCommand(mockCmd)
}

func runMock(cmd *cobra.Command, args []string) error {
	if err := logger.Init(logger.Config{Level: "INFO", Format: "text", Output: "stderr"}); err != nil {
		return err
	}

	var opts []hdfstest.Option
	if mockRedirects {
		opts = append(opts, hdfstest.WithRedirects())
	}
	srv := hdfstest.New(opts...)

	httpSrv := &http.Server{Addr: mockListen, Handler: srv.Handler()}

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpSrv.ListenAndServe()
	}()
	logger.Info("mock WebHDFS server listening", logger.KeyAddress, mockListen)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(ctx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}
