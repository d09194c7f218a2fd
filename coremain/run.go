/*
 * Copyright (C) 2023-2025, tldex contributors
 *
 * This file is part of tldex.
 *
 * tldex is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * tldex is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package coremain

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tldex/tldex/mlog"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{Use: "tldex"}

func init() {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start tldex main program.",
		Run:   StartServer,
	}
	rootCmd.AddCommand(startCmd)
	fs := startCmd.PersistentFlags()
	fs.StringVarP(&sf.c, "config", "c", "", "config file")
	fs.StringVarP(&sf.dir, "dir", "d", "", "working dir")
	fs.IntVar(&sf.cpu, "cpu", 0, "set runtime.GOMAXPROCS")
	fs.BoolVar(&sf.asService, "as-service", false, "start as a system service")
	_ = fs.MarkHidden("as-service")

	svcCmd := &cobra.Command{
		Use:               "service",
		Short:             "Manage tldex as a system service.",
		PersistentPreRunE: initService,
	}
	svcCmd.AddCommand(
		newSvcInstallCmd(),
		newSvcUninstallCmd(),
		newSvcStartCmd(),
		newSvcStopCmd(),
		newSvcRestartCmd(),
		newSvcStatusCmd(),
	)
	rootCmd.AddCommand(svcCmd)
}

func AddSubCmd(c *cobra.Command) {
	rootCmd.AddCommand(c)
}

func Run() error {
	return rootCmd.Execute()
}

type serverFlags struct {
	c         string
	dir       string
	cpu       int
	asService bool
}

var sf = serverFlags{}

func StartServer(cmd *cobra.Command, args []string) {
	if sf.cpu > 0 {
		runtime.GOMAXPROCS(sf.cpu)
	}

	if sf.asService {
		svc, err := newService(&sf)
		if err != nil {
			mlog.L().Fatal("failed to init service", zap.Error(err))
		}
		if err := svc.Run(); err != nil {
			mlog.L().Fatal("service exited", zap.Error(err))
		}
		return
	}

	m, err := newServerFromFlags(&sf)
	if err != nil {
		mlog.L().Fatal("failed to start tldex", zap.Error(err))
	}

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		sig := <-c
		m.Logger().Warn("signal received, exiting", zap.Stringer("signal", sig))
		m.CloseWithErr(nil)
	}()

	if err := m.WaitClosed(); err != nil {
		mlog.L().Fatal("tldex exited", zap.Error(err))
	}
}

// newServerFromFlags loads the config the start flags point at and
// builds a running Tldex instance from it.
func newServerFromFlags(f *serverFlags) (*Tldex, error) {
	if len(f.dir) > 0 {
		if err := os.Chdir(f.dir); err != nil {
			return nil, fmt.Errorf("failed to change the current working directory, %w", err)
		}
		mlog.L().Info("working directory changed", zap.String("path", f.dir))
	}

	v := viper.New()
	if len(f.c) > 0 {
		v.SetConfigFile(f.c)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file, %w", err)
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg, decoderOpt); err != nil {
		return nil, fmt.Errorf("failed to parse config file, %w", err)
	}

	return NewTldex(cfg)
}

func decoderOpt(cfg *mapstructure.DecoderConfig) {
	cfg.ErrorUnused = true
	cfg.TagName = "yaml"
	cfg.WeaklyTypedInput = true
}
