package commands

import (
	"fmt"
	"os"

	"github.com/mxl-space/gr-hdfs/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a configuration file populated with defaults.

The file is created at $XDG_CONFIG_HOME/gr-hdfs/config.yaml unless --config
points elsewhere. Existing files are preserved unless --force is given.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to point at your namenode")
	fmt.Println("  2. Capture a stream: gr-hdfs sink --file capture.bin")
	fmt.Printf("  3. Or specify custom config: gr-hdfs sink --config %s --file capture.bin\n", path)
	return nil
}
