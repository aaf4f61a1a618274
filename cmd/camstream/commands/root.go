package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hamlinzheng/rockchip-example/internal/config"
	"github.com/hamlinzheng/rockchip-example/internal/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "camstream",
		Short: "camstream - threaded V4L2 camera capture and streaming",
		Long: `camstream captures frames from a V4L2 camera through a GStreamer
pipeline on a dedicated capture thread, buffers them in a bounded
drop-oldest queue, and consumes them on the main thread.

Commands:
  • view     display the camera in an X11 window
  • publish  serve the camera as an MJPEG HTTP stream
  • devices  list available capture devices`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/camstream/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port for publish mode (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty", false, "human-readable log output")

	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("pretty", rootCmd.PersistentFlags().Lookup("pretty"))
}

// loadConfig reads the config file and layers flag and positional-argument
// overrides on top of it, in that order.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if viper.GetInt("server_port") > 0 {
		cfg.ServerPort = viper.GetInt("server_port")
	}
	if lvl := viper.GetString("log_level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	if err := cfg.ApplyArgs(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Init(cfg.LogLevel, viper.GetBool("pretty"))
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
