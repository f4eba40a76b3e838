package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// announceCmd represents the announce command
var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "公告管理",
	Long: `Manages the rotating announcements shown above the result table.

Example:
  go run ./cmd/bigorder announce list
  go run ./cmd/bigorder announce set "盘中数据每5分钟刷新" "仅供参考"
  go run ./cmd/bigorder announce reset`,
}

var (
	announceListCmd = &cobra.Command{
		Use:   "list",
		Short: "查看公告",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			PrintNumberedList(a.announcements.List())
			return nil
		},
	}

	announceSetCmd = &cobra.Command{
		Use:   "set [text...]",
		Short: "替换公告",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.announcements.SaveText(strings.Join(args, "\n"))
			if err != nil {
				return err
			}
			PrintSuccess("Announcements saved")
			PrintNumberedList(items)
			return nil
		},
	}

	announceResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "恢复默认公告",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.announcements.Reset()
			if err != nil {
				return err
			}
			PrintSuccess("Announcements reset")
			PrintNumberedList(items)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(announceCmd)
	announceCmd.AddCommand(announceListCmd, announceSetCmd, announceResetCmd)
}
