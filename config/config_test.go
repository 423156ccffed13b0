package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, "ai:\n  webhook_url: http://ai.local/webhook\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.AI.WebhookURL != "http://ai.local/webhook" {
		t.Errorf("期望 webhook_url 来自配置文件，实际=%s", cfg.AI.WebhookURL)
	}
	if cfg.AI.GenerateTimeout != 3*time.Minute {
		t.Errorf("期望生成超时 3m，实际=%s", cfg.AI.GenerateTimeout)
	}
	if cfg.AI.ProbeTimeout != 30*time.Second {
		t.Errorf("期望探测超时 30s，实际=%s", cfg.AI.ProbeTimeout)
	}
	if cfg.Roadmap.DefaultDays != 30 {
		t.Errorf("期望默认天数 30，实际=%d", cfg.Roadmap.DefaultDays)
	}
	if cfg.Server.WriteTimeout <= cfg.AI.GenerateTimeout {
		t.Errorf("写超时应大于生成超时: %s <= %s", cfg.Server.WriteTimeout, cfg.AI.GenerateTimeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "ai:\n  webhook_url: http://ai.local/webhook\n")
	t.Setenv("STUDIFY_ROADMAP_DEFAULT_DAYS", "14")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Roadmap.DefaultDays != 14 {
		t.Errorf("期望环境变量覆盖为 14，实际=%d", cfg.Roadmap.DefaultDays)
	}
}

func TestLoad_MissingWebhookRejected(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	if _, err := Load(path); err == nil {
		t.Fatal("缺少 ai.webhook_url 时应返回错误")
	}
}

func TestValidate_BadPort(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 70000},
		AI:      AIConfig{WebhookURL: "http://x", GenerateTimeout: time.Second, ProbeTimeout: time.Second},
		Roadmap: RoadmapConfig{DefaultDays: 30},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("非法端口应校验失败")
	}
}
