package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hamlinzheng/rockchip-example/internal/capture"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List V4L2 capture devices",
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices := capture.ListDevices()
	if len(devices) == 0 {
		fmt.Println("No V4L2 devices found")
		return nil
	}
	for _, d := range devices {
		if d.Name != "" {
			fmt.Printf("%s\t%s\n", d.Path, d.Name)
		} else {
			fmt.Println(d.Path)
		}
	}
	return nil
}
