package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hoardhq/hoard/internal/server"
	"github.com/hoardhq/hoard/internal/utils"
	"github.com/hoardhq/hoard/internal/version"
)

const configFileName = "hoard"

var rootCmd = &cobra.Command{
	Use:          "hoard-server",
	Short:        "Hoard Storage Server",
	Version:      version.Detailed(),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		s, err := server.New(cfg)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		return s.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("bind", "b", server.DefaultAddr, "Address to bind the server")
	rootCmd.Flags().String("cert", "", "Path to the TLS certificate file")
	rootCmd.Flags().String("key", "", "Path to the TLS key file")
	rootCmd.Flags().String("db", "", "Path to the sqlite database (defaults to in-memory)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the config file")
}

func main() {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	if cmd.Flag("config").Changed {
		viper.SetConfigFile(cmd.Flag("config").Value.String())
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/hoard")
		viper.SetConfigName(configFileName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return nil, fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	// defaults also register the keys so AutomaticEnv can see them
	viper.SetDefault("http.addr", server.DefaultAddr)
	viper.SetDefault("http.base_url", "")
	viper.SetDefault("http.cert_file", "")
	viper.SetDefault("http.key_file", "")
	viper.SetDefault("db_path", "")
	viper.SetDefault("s3.region", "")
	viper.SetDefault("s3.access_key", "")
	viper.SetDefault("s3.secret_key", "")
	viper.SetDefault("s3.endpoint", "")
	viper.SetDefault("s3.use_accelerate", false)
	viper.SetDefault("storage.bucket_suffix", "")
	viper.SetDefault("storage.single_put_max", 0)
	viper.SetDefault("storage.upload_timeout", "0s")
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.token_issuer", "")
	viper.SetDefault("auth.access_token_secret", "")
	viper.SetDefault("auth.access_token_expiry", "0s")
	viper.SetDefault("accounts.signup_enabled", false)
	viper.SetDefault("accounts.invite_code", "")

	viper.BindPFlag("http.addr", cmd.Flags().Lookup("bind"))
	viper.BindPFlag("http.cert_file", cmd.Flags().Lookup("cert"))
	viper.BindPFlag("http.key_file", cmd.Flags().Lookup("key"))
	viper.BindPFlag("db_path", cmd.Flags().Lookup("db"))

	viper.SetEnvPrefix("HOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	cfg := &server.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	if cfg.DBPath != "" {
		resolved, err := utils.ResolvePath(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("resolve db path %q: %w", cfg.DBPath, err)
		}
		cfg.DBPath = resolved
	}

	return cfg, nil
}
