/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/rradio/internal/config"
	"github.com/friendsincode/rradio/internal/logging"
	"github.com/friendsincode/rradio/internal/ping"
	"github.com/friendsincode/rradio/internal/pipeline"
	"github.com/friendsincode/rradio/internal/player"
	"github.com/friendsincode/rradio/internal/port"
	"github.com/friendsincode/rradio/internal/shutdown"
	"github.com/friendsincode/rradio/internal/version"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "rradio",
		Short: "Internet radio player daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config.toml")

	var showVersion bool
	root.Flags().BoolVarP(&showVersion, "version", "V", false, "print version and exit")
	root.PreRunE = func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Println(version.Version)
			os.Exit(0)
		}
		return nil
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rradio: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, logBus := logging.Setup(cfg.LogLevel)
	logger.Info().Str("version", version.Version).Msg("rradio starting")

	adapter := pipeline.New(cfg, logger)

	worker, err := ping.NewWorker()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open icmp socket")
	}
	defer worker.Close()
	pingDriver := ping.NewDriver(worker, cfg.Ping)

	controller := player.New(cfg, logger, adapter)

	sig := shutdown.New()
	group := &shutdown.Group{}

	group.Add(1)
	go func() {
		defer group.Done()
		controller.Run(sig, pingDriver.State())
	}()

	group.Add(1)
	go func() {
		defer group.Done()
		pingDriver.Run(sig, controller.TrackURL())
	}()

	deps := port.Deps{
		Commands: controller.Commands(),
		State:    controller.State(),
		Logs:     logBus,
		Shutdown: sig,
		Group:    group,
		Logger:   logger,
	}

	textAddr := cfg.Ports.TextAddr
	if textAddr == "" {
		textAddr = "127.0.0.1:5000"
	}
	binaryAddr := cfg.Ports.BinaryAddr
	if binaryAddr == "" {
		binaryAddr = fmt.Sprintf("127.0.0.1:%d", version.APIPort)
	}
	webBind := cfg.Web.Bind
	if webBind == "" {
		webBind = "127.0.0.1"
	}
	httpAddr := fmt.Sprintf("%s:%d", webBind, portOrDefault(cfg.Web.Port))

	group.Add(1)
	go func() {
		defer group.Done()
		if err := port.ListenText(textAddr, deps); err != nil {
			logger.Error().Err(err).Msg("text port stopped")
		}
	}()

	group.Add(1)
	go func() {
		defer group.Done()
		if err := port.ListenBinary(binaryAddr, deps); err != nil {
			logger.Error().Err(err).Msg("binary port stopped")
		}
	}()

	group.Add(1)
	go func() {
		defer group.Done()
		if err := port.ListenHTTP(httpAddr, cfg.Web.WebAppPath, deps); err != nil {
			logger.Error().Err(err).Msg("http port stopped")
		}
	}()

	group.Add(1)
	go func() {
		defer group.Done()
		if err := port.ListenKeyboard(cfg, deps); err != nil {
			logger.Error().Err(err).Msg("keyboard port stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	sig.Fire()

	if !group.WaitWithGrace(5 * time.Second) {
		logger.Warn().Msg("shutdown grace period elapsed with tasks still running")
	}

	logger.Info().Msg("rradio stopped")
	return nil
}

func portOrDefault(p int) int {
	if p == 0 {
		return 8080
	}
	return p
}
