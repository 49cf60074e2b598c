package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"healthline/internal/client"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	v := viper.New()
	v.SetEnvPrefix("HEALTHLINE")
	v.SetDefault("server", "http://localhost:5000")
	_ = v.BindEnv("server")

	root := &cobra.Command{
		Use:          "healthline",
		Short:        "Interactive terminal client for the Healthline API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh := newShell(client.New(v.GetString("server"), nil), cmd.InOrStdin(), cmd.OutOrStdout())
			logger.Debugf("connecting to %s", v.GetString("server"))
			return sh.Run(cmd.Context())
		},
	}
	root.Flags().String("server", v.GetString("server"), "base URL of the Healthline API (HEALTHLINE_SERVER)")
	_ = v.BindPFlag("server", root.Flags().Lookup("server"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Fatalf("healthline: %v", err)
	}
}
