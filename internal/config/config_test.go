package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func itemModel() ModelConfig {
	return ModelConfig{
		Schema: "ItemDocument",
		Rank:   "-price",
		Fields: []FieldConfig{
			{Name: "name", Type: "text", Indexer: "startswith"},
			{Name: "price", Type: "integer"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"unknown driver", func(c *Config) { c.Platform.Driver = "solr" }, "platform.driver"},
		{"redis without addrs", func(c *Config) { c.Platform.Driver = DriverRedis }, "platform.addrs"},
		{"redis with addrs", func(c *Config) {
			c.Platform.Driver = DriverRedis
			c.Platform.Addrs = []string{"localhost:6379"}
		}, ""},
		{"missing brokers", func(c *Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"delete batch too large", func(c *Config) { c.Tasks.DeleteBatchSize = 201 }, "delete_batch_size"},
		{"bad table key", func(c *Config) {
			c.Postgres.DSN = "postgres://localhost/app"
			c.Postgres.Tables = map[string]string{"item": "shop_item"}
		}, "app.model"},
		{"tables without dsn", func(c *Config) {
			c.Postgres.Tables = map[string]string{"shop.item": "shop_item"}
		}, "postgres.dsn"},
		{"valid model", func(c *Config) { c.Models = map[string]ModelConfig{"shop.item": itemModel()} }, ""},
		{"bad model key", func(c *Config) { c.Models = map[string]ModelConfig{"item": itemModel()} }, "app.model"},
		{"model without fields", func(c *Config) {
			c.Models = map[string]ModelConfig{"shop.item": {}}
		}, "fields is required"},
		{"unknown field type", func(c *Config) {
			m := itemModel()
			m.Fields[0].Type = "blob"
			c.Models = map[string]ModelConfig{"shop.item": m}
		}, "unknown type"},
		{"unknown indexer", func(c *Config) {
			m := itemModel()
			m.Fields[0].Indexer = "soundex"
			c.Models = map[string]ModelConfig{"shop.item": m}
		}, "unknown indexer"},
		{"duplicate field", func(c *Config) {
			m := itemModel()
			m.Fields = append(m.Fields, m.Fields[0])
			c.Models = map[string]ModelConfig{"shop.item": m}
		}, "duplicate field"},
		{"unknown rank field", func(c *Config) {
			m := itemModel()
			m.Rank = "-weight"
			c.Models = map[string]ModelConfig{"shop.item": m}
		}, "rank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8090 {
		t.Errorf("expected Port=8090, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Platform.Driver != DriverBleve {
		t.Errorf("expected Driver=bleve, got %q", cfg.Platform.Driver)
	}
	if cfg.Platform.KeyPrefix != "docsearch:" {
		t.Errorf("expected KeyPrefix='docsearch:', got %q", cfg.Platform.KeyPrefix)
	}
	if cfg.Kafka.Topic != "docsearch.tasks" || cfg.Kafka.GroupID != "docsearch-worker" {
		t.Errorf("kafka defaults = %+v", cfg.Kafka)
	}
	if cfg.Tasks.DeleteBatchSize != 200 || cfg.Tasks.RetrieveBatchSize != 500 {
		t.Errorf("tasks defaults = %+v", cfg.Tasks)
	}
	if !cfg.Indexing.IsEnabled() {
		t.Error("indexing should default to enabled")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 9000, ReadTimeoutSec: 30},
		Platform: PlatformConfig{Driver: DriverRedis, KeyPrefix: "custom:"},
		Tasks:    TasksConfig{RetrieveBatchSize: 50},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 || cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("http = %+v", cfg.HTTP)
	}
	if cfg.Platform.Driver != DriverRedis || cfg.Platform.KeyPrefix != "custom:" {
		t.Errorf("platform = %+v", cfg.Platform)
	}
	if cfg.Tasks.RetrieveBatchSize != 50 {
		t.Errorf("expected RetrieveBatchSize=50, got %d", cfg.Tasks.RetrieveBatchSize)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("DOCSEARCH_TEST_BROKER", "kafka:9092")

	cfg, err := Parse([]byte(`
platform:
  driver: redis
  addrs: ["${DOCSEARCH_TEST_REDIS:-localhost:6379}"]
kafka:
  brokers: ["${DOCSEARCH_TEST_BROKER}"]
postgres:
  dsn: postgres://localhost/app
  tables:
    shop.item: shop_item
indexing:
  enabled: false
models:
  shop.item:
    schema: ItemDocument
    rank: -price
    fields:
      - {name: name, type: text, indexer: startswith}
      - {name: price, type: integer}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := cfg.Platform.Addrs; len(got) != 1 || got[0] != "localhost:6379" {
		t.Errorf("addrs = %v", got)
	}
	if got := cfg.Kafka.Brokers; len(got) != 1 || got[0] != "kafka:9092" {
		t.Errorf("brokers = %v", got)
	}
	if cfg.Postgres.Tables["shop.item"] != "shop_item" || cfg.Postgres.IDColumn != "id" {
		t.Errorf("postgres = %+v", cfg.Postgres)
	}
	if cfg.Indexing.IsEnabled() {
		t.Error("indexing.enabled: false was ignored")
	}
	m := cfg.Models["shop.item"]
	if m.Rank != "-price" || len(m.Fields) != 2 || m.Fields[0].Indexer != "startswith" {
		t.Errorf("model = %+v", m)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error for missing brokers")
	}
}
