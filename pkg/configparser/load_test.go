package configparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Database struct {
		Host     string        `env:"TESTCFG_DATABASE_HOST" default:"localhost"`
		Port     int32         `env:"TESTCFG_DATABASE_PORT" default:"5432"`
		Lifetime time.Duration `env:"TESTCFG_DATABASE_LIFETIME" default:"30m"`
	}
	Kafka struct {
		Brokers []string `env:"TESTCFG_KAFKA_BROKERS"`
	}
	Enabled bool `env:"TESTCFG_ENABLED" default:"false"`
}

func TestLoadYamlFile_FlattensNestedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
testcfg:
  database:
    host: db.internal
    port: 6543
  kafka:
    brokers:
      - k1:9092
      - k2:9092
  enabled: true
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	for _, k := range []string{"TESTCFG_DATABASE_HOST", "TESTCFG_DATABASE_PORT", "TESTCFG_KAFKA_BROKERS", "TESTCFG_ENABLED", "TESTCFG_DATABASE_LIFETIME"} {
		t.Setenv(k, "")
	}

	var cfg testConfig
	if err := LoadAndParseYaml(path, &cfg); err != nil {
		t.Fatalf("LoadAndParseYaml: %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("port = %d, want 6543", cfg.Database.Port)
	}
	if cfg.Database.Lifetime != 30*time.Minute {
		t.Errorf("lifetime = %v, want default 30m", cfg.Database.Lifetime)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if !cfg.Enabled {
		t.Errorf("enabled = false, want true")
	}
}

func TestLoadYaml_DoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("TESTCFG_DATABASE_HOST", "from-env")

	if err := LoadYaml([]byte("testcfg:\n  database:\n    host: from-file\n")); err != nil {
		t.Fatalf("LoadYaml: %v", err)
	}

	if got := os.Getenv("TESTCFG_DATABASE_HOST"); got != "from-env" {
		t.Fatalf("env overridden: got %q", got)
	}
}

func TestLoadYaml_ExpandsDefaults(t *testing.T) {
	t.Setenv("TESTCFG_DATABASE_HOST", "")
	t.Setenv("TESTCFG_UNSET_SOURCE", "")

	if err := LoadYaml([]byte("testcfg:\n  database:\n    host: ${TESTCFG_UNSET_SOURCE:-fallback}\n")); err != nil {
		t.Fatalf("LoadYaml: %v", err)
	}

	if got := os.Getenv("TESTCFG_DATABASE_HOST"); got != "fallback" {
		t.Fatalf("got %q, want fallback", got)
	}
}

func TestParseEnv_RejectsBadValues(t *testing.T) {
	t.Setenv("TESTCFG_DATABASE_PORT", "not-a-number")
	t.Setenv("TESTCFG_DATABASE_HOST", "")
	t.Setenv("TESTCFG_DATABASE_LIFETIME", "")

	var cfg testConfig
	if err := ParseEnv(&cfg); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestParseEnv_RequiresPointer(t *testing.T) {
	if err := ParseEnv(testConfig{}); err != ErrNotStructPointer {
		t.Fatalf("got %v, want ErrNotStructPointer", err)
	}
}

func TestLoadAndParseYaml_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TESTCFG_DATABASE_HOST", "")
	t.Setenv("TESTCFG_DATABASE_PORT", "")

	var cfg testConfig
	if err := LoadAndParseYaml(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err != nil {
		t.Fatalf("LoadAndParseYaml: %v", err)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Fatalf("defaults not applied: %+v", cfg.Database)
	}
}
