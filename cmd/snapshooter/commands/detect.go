package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/SnapShooter/internal/session"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show how the screen would be captured",
	Long: `Print the session type reported by the environment, the resulting
capture mode and the capturer that would serve a capture request.`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	configMgr, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	kind, c := newRouter(configMgr.Get()).Route()

	value := os.Getenv(session.EnvVar)
	if value == "" {
		value = "(unset)"
	}
	fmt.Printf("%s: %s\n", session.EnvVar, value)
	fmt.Printf("session:  %s\n", kind)
	fmt.Printf("capturer: %s\n", c.Name())
	return nil
}
