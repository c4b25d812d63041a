package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bryanchriswhite/SnapShooter/internal/capture"
	"github.com/bryanchriswhite/SnapShooter/internal/config"
	"github.com/bryanchriswhite/SnapShooter/internal/output"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Take a full-screen screenshot",
	Long: `Capture the whole screen once and save it as PNG.

Without --output the file is written to output.dir using output.prefix and
the current local time, e.g. screenshot-2024-05-01T13-37-00.png.`,
	Example: `  # Save to the configured output directory
  snapshooter capture

  # Save to a specific file
  snapshooter capture -o desk.png

  # Stream PNG bytes to another program
  snapshooter capture -o - | wl-copy`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

var outputFlag string

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output file, or - for stdout")
}

func runCapture(cmd *cobra.Command, args []string) error {
	configMgr, err := loadRuntimeConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	img, err := newRouter(cfg).Capture()
	if err != nil {
		return fmt.Errorf("capture failed (%s): %w", capture.KindOf(err), err)
	}

	if outputFlag == "-" {
		return output.EncodePNG(os.Stdout, img)
	}

	path := outputPath(outputFlag, cfg, time.Now())
	if err := output.SavePNG(path, img); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// outputPath returns flag, or the default file name in the configured
// output directory when flag is empty.
func outputPath(flag string, cfg config.Config, now time.Time) string {
	if flag != "" {
		return flag
	}
	return filepath.Join(cfg.Output.Dir, output.DefaultFileName(cfg.Output.Prefix, now))
}
