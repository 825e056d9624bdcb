package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望端口 9090，实际 %d", cfg.Server.Port)
	}
	if cfg.Storage.Mode != StorageRemote || cfg.Roadmap.DayPx != 18 || cfg.Roadmap.CardW != 260 {
		t.Errorf("默认值错误: %+v %+v", cfg.Storage, cfg.Roadmap)
	}
	if cfg.Import.MaxBodyBytes != 2<<20 {
		t.Errorf("默认导入体积上限错误: %d", cfg.Import.MaxBodyBytes)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  mode: remote\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLANNER_STORAGE_MODE", "local")
	t.Setenv("PLANNER_STORAGE_LOCAL_PATH", "/tmp/p.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Storage.Mode != StorageLocal || cfg.Storage.LocalPath != "/tmp/p.db" {
		t.Errorf("环境变量未生效: %+v", cfg.Storage)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080},
			Storage: StorageConfig{Mode: StorageLocal, LocalPath: "x.db", LocalUser: "local"},
			Roadmap: RoadmapConfig{DayPx: 18, CardW: 260, CardH: 70, CardGap: 8, LabelW: 280, LanePad: 12, MinGap: 10},
			Import:  ImportConfig{MaxBodyBytes: 1024},
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("合法配置校验失败: %v", err)
	}

	cases := map[string]func(c *Config){
		"端口越界":     func(c *Config) { c.Server.Port = 70000 },
		"未知存储模式":   func(c *Config) { c.Storage.Mode = "cloud" },
		"本地路径为空":   func(c *Config) { c.Storage.LocalPath = " " },
		"卡片宽度为零":   func(c *Config) { c.Roadmap.CardW = 0 },
		"最小间距为零":   func(c *Config) { c.Roadmap.MinGap = 0 },
		"导入体积上限为零": func(c *Config) { c.Import.MaxBodyBytes = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("期望校验失败")
			}
		})
	}
}

func TestCalendarLocation(t *testing.T) {
	c := CalendarConfig{Timezone: "Nowhere/Invalid"}
	if c.Location().String() != "UTC" {
		t.Errorf("无效时区应回退 UTC，实际 %s", c.Location())
	}
}
