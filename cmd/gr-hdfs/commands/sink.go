package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mxl-space/gr-hdfs/internal/bytesize"
	"github.com/mxl-space/gr-hdfs/internal/logger"
	"github.com/mxl-space/gr-hdfs/pkg/blocks"
	"github.com/mxl-space/gr-hdfs/pkg/config"
	"github.com/mxl-space/gr-hdfs/pkg/metrics"
	"github.com/mxl-space/gr-hdfs/pkg/sample"
	"github.com/mxl-space/gr-hdfs/pkg/webhdfs"
	"github.com/spf13/cobra"
)

var (
	sinkFile       string
	sinkFolder     string
	sinkMode       string
	sinkSampleType string
	sinkBufferSize string
	sinkInput      string
)

var sinkCmd = &cobra.Command{
	Use:   "sink",
	Short: "Capture a sample stream into a remote HDFS file",
	Long: `Read samples from stdin (or --input) and persist them to a remote
HDFS file through buffered appends.

The stream is accumulated in memory and shipped to the cluster in fixed-size
chunks (--buffer-size, default 128Mi), so the pipeline never blocks on the
network. On shutdown the remaining partial chunk is flushed.

Examples:
  some_flowgraph | gr-hdfs sink --file capture.bin --sample-type short
  gr-hdfs sink --file capture.bin --input samples.dat --mode overwrite`,
	RunE: runSink,
}

func init() {
	sinkCmd.Flags().StringVar(&sinkFile, "file", "", "Remote file name (required)")
	sinkCmd.Flags().StringVar(&sinkFolder, "folder", "", "Remote folder path")
	sinkCmd.Flags().StringVar(&sinkMode, "mode", "", "Write mode: append or overwrite")
	sinkCmd.Flags().StringVar(&sinkSampleType, "sample-type", "", "Sample type: complex, float, int, short, byte")
	sinkCmd.Flags().StringVar(&sinkBufferSize, "buffer-size", "", "Transfer chunk size, e.g. 128Mi")
	sinkCmd.Flags().StringVar(&sinkInput, "input", "", "Read samples from a file instead of stdin")
	_ = sinkCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(sinkCmd)
}

func runSink(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}
	if err := applySinkFlags(cmd, cfg); err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}
	InitMetrics(cfg)
	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))

	in := io.Reader(os.Stdin)
	if sinkInput != "" {
		f, err := os.Open(sinkInput)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	store := webhdfs.New(cfg.WebHDFS.ClientConfig(), metrics.NewClientMetrics())
	sink, err := blocks.NewSink(cfg.Sink.BlockConfig(), store, metrics.NewBlockMetrics())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sink.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sink: %w", err)
	}
	defer sink.Stop()

	// A signal interrupts the copy loop; the deferred Stop flushes what is
	// pending and drains the queue.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	buf := make([]byte, 256*bytesize.KiB)
	var items int64
	for {
		if ctx.Err() != nil {
			break
		}
		n, err := in.Read(buf)
		if n > 0 {
			items += int64(sink.PushSamples(buf[:n]))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("input read error: %w", err)
			}
			break
		}
	}

	sink.Stop()
	logger.Info("capture finished", logger.KeyItems, items)
	return nil
}

// applySinkFlags layers CLI flag values over the loaded configuration.
func applySinkFlags(cmd *cobra.Command, cfg *config.Config) error {
	cfg.Sink.Filename = sinkFile
	if cmd.Flags().Changed("folder") {
		cfg.Sink.Folder = sinkFolder
	}
	if cmd.Flags().Changed("mode") {
		mode, err := blocks.ParseWriteMode(sinkMode)
		if err != nil {
			return err
		}
		cfg.Sink.Mode = mode
	}
	if cmd.Flags().Changed("sample-type") {
		st, err := sample.Parse(sinkSampleType)
		if err != nil {
			return err
		}
		cfg.Sink.SampleType = st
	}
	if cmd.Flags().Changed("buffer-size") {
		size, err := bytesize.Parse(sinkBufferSize)
		if err != nil {
			return err
		}
		cfg.Sink.BufferSize = size
	}
	return nil
}
