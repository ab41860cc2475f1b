package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Crawl.MaxDepth != 1 || cfg.Crawl.MaxPages != 10 {
		t.Fatalf("unexpected crawl defaults: %+v", cfg.Crawl)
	}
	if cfg.Crawl.RequestTimeout != 10*time.Second {
		t.Fatalf("expected request timeout 10s, got %v", cfg.Crawl.RequestTimeout)
	}
	if cfg.Verify.ProbeEnabled {
		t.Fatal("probing should be off by default")
	}
	if len(cfg.Extract.DenyDomains) == 0 || len(cfg.Crawl.SkipDomains) == 0 {
		t.Fatal("expected non-empty default deny/skip lists")
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
pipeline:
  concurrency: 6
  queue_depth: 128
  guess_enabled: true
  topic: best-emails
extract:
  deny_domains: ["imgcdn.net"]
  deobfuscate: false
crawl:
  max_depth: 2
  max_pages: 25
  request_timeout: 5s
  user_agent: prospector-test
  link_keywords: ["contact"]
verify:
  probe_enabled: true
  timeout: 3s
  helo_domain: probe.example
quota:
  max_outbound: 16
archive:
  provider: local
  base_dir: /tmp/pages
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Pipeline.Concurrency != 6 || !cfg.Pipeline.GuessEnabled || cfg.Pipeline.Topic != "best-emails" {
		t.Fatalf("pipeline overrides not applied: %+v", cfg.Pipeline)
	}
	if len(cfg.Extract.DenyDomains) != 1 || cfg.Extract.DenyDomains[0] != "imgcdn.net" {
		t.Fatalf("extract overrides not applied: %+v", cfg.Extract)
	}
	if cfg.Crawl.RequestTimeout != 5*time.Second {
		t.Fatalf("expected request timeout 5s, got %v", cfg.Crawl.RequestTimeout)
	}
	if !cfg.Verify.ProbeEnabled || cfg.Verify.Timeout != 3*time.Second || cfg.Verify.HELODomain != "probe.example" {
		t.Fatalf("verify overrides not applied: %+v", cfg.Verify)
	}
	if cfg.Quota.MaxOutbound != 16 {
		t.Fatalf("expected quota 16, got %d", cfg.Quota.MaxOutbound)
	}
	if cfg.Archive.Provider != "local" || cfg.Archive.BaseDir != "/tmp/pages" {
		t.Fatalf("archive overrides not applied: %+v", cfg.Archive)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:   ServerConfig{Port: 8080},
		Pipeline: PipelineConfig{Concurrency: 1},
		Crawl:    CrawlConfig{RequestTimeout: 10 * time.Second},
		Verify:   VerifyConfig{Timeout: 5 * time.Second},
		Quota:    QuotaConfig{MaxOutbound: 4},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "invalid concurrency",
			cfg: func() Config {
				c := base
				c.Pipeline.Concurrency = 0
				return c
			}(),
			want: "pipeline.concurrency",
		},
		{
			name: "invalid request timeout",
			cfg: func() Config {
				c := base
				c.Crawl.RequestTimeout = 0
				return c
			}(),
			want: "crawl.request_timeout",
		},
		{
			name: "invalid verify timeout",
			cfg: func() Config {
				c := base
				c.Verify.Timeout = 0
				return c
			}(),
			want: "verify.timeout",
		},
		{
			name: "invalid quota",
			cfg: func() Config {
				c := base
				c.Quota.MaxOutbound = 0
				return c
			}(),
			want: "quota.max_outbound",
		},
		{
			name: "headless missing max parallel",
			cfg: func() Config {
				c := base
				c.Headless.Enabled = true
				return c
			}(),
			want: "headless.max_parallel",
		},
		{
			name: "local archive missing base dir",
			cfg: func() Config {
				c := base
				c.Archive.Provider = "local"
				return c
			}(),
			want: "archive.base_dir",
		},
		{
			name: "unknown archive provider",
			cfg: func() Config {
				c := base
				c.Archive.Provider = "s3"
				return c
			}(),
			want: "archive.provider",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
