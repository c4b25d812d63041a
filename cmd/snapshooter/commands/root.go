package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/SnapShooter/internal/capture"
	"github.com/bryanchriswhite/SnapShooter/internal/capture/portal"
	"github.com/bryanchriswhite/SnapShooter/internal/config"
	"github.com/bryanchriswhite/SnapShooter/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "snapshooter",
		Short: "SnapShooter - Full-screen screenshots on X11 and Wayland",
		Long: `SnapShooter takes full-screen screenshots on Linux desktops.

On X11 sessions the root window is read directly. On Wayland sessions the
request goes through the desktop portal (org.freedesktop.portal.Screenshot),
which may ask the user for permission.

Features:
  • Automatic session detection via XDG_SESSION_TYPE
  • Portal screenshots over the D-Bus session bus
  • Save to file or stream PNG to stdout
  • Preview server with live capture events
  • Persistent configuration`,
		SilenceUsage: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/snapshooter/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	// Bind flags to viper
	viper.BindPFlag("server.port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadRuntimeConfig loads the configuration, applies command line overrides
// without persisting them and initialises logging.
func loadRuntimeConfig() (*config.Manager, error) {
	configMgr, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	for _, key := range []string{"server.port", "log_level"} {
		if !viper.IsSet(key) {
			continue
		}
		if err := configMgr.Set(key, viper.GetString(key)); err != nil {
			return nil, err
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	logger.WithComponent("config").Debug().
		Str("path", configMgr.Path()).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")
	return configMgr, nil
}

// newRouter wires the direct and portal capturers behind the session probe.
func newRouter(cfg config.Config) *capture.Router {
	return capture.NewRouter(
		capture.NewX11Capturer(),
		portal.NewCapturer(nil, portal.Config{Timeout: cfg.Portal.Timeout}),
	)
}
