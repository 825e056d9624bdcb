// planner 本地模式命令行：在 SQLite 文件上校验、导入、导出学期并查看路线图。
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/config"
	"github.com/edbrsk/uoc-planner/internal/localstore"
	"github.com/edbrsk/uoc-planner/internal/service"
	applogger "github.com/edbrsk/uoc-planner/pkg/logger"
)

var Version = "dev"

// app 一次命令执行所需的依赖
type app struct {
	svc    *service.Service
	owner  string
	store  *localstore.Store
	logger *zap.Logger
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

// globalFlags 所有子命令共享的参数
type globalFlags struct {
	configPath string
	dbPath     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "planner",
		Short:         "UOC planner - 本地学期规划工具",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "本地数据库文件（覆盖 storage.local_path）")

	rootCmd.AddCommand(validateCmd(flags))
	rootCmd.AddCommand(importCmd(flags))
	rootCmd.AddCommand(listCmd(flags))
	rootCmd.AddCommand(exportCmd(flags))
	rootCmd.AddCommand(roadmapCmd(flags))

	return rootCmd
}

// openApp 加载配置并打开本地存储；命令行总是以本地模式运行
func openApp(flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	cfg.Storage.Mode = config.StorageLocal
	if flags.dbPath != "" {
		cfg.Storage.LocalPath = flags.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}

	store, err := localstore.Open(cfg.Storage.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("打开本地数据库失败: %w", err)
	}

	svc := service.NewService(store.Repository(), service.OptionsFromConfig(cfg, nil), logger)
	return &app{svc: svc, owner: cfg.Storage.LocalUser, store: store, logger: logger}, nil
}
