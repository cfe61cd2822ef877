package model

import "time"

// Config is the full runtime configuration. Field defaults come from
// DefaultConfig; CLI flags and ENTIGEST_* environment variables override.
type Config struct {
	SPARQL      SPARQLConfig      `yaml:"sparql" mapstructure:"sparql"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// SPARQLConfig controls the remote graph-query client.
type SPARQLConfig struct {
	Endpoint          string        `yaml:"endpoint" mapstructure:"endpoint"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	HTTPProxy         string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// CacheConfig controls the layered query-response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StoreConfig controls the persistence backend.
type StoreConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
	InMemory  bool   `yaml:"in_memory" mapstructure:"in_memory"`
}

// SearchConfig describes the lookup search index. Consumed by the external
// lookup API; ingestion only ensures the index exists.
type SearchConfig struct {
	Addresses []string `yaml:"addresses" mapstructure:"addresses"`
	Index     string   `yaml:"index" mapstructure:"index"`
	Shards    int      `yaml:"shards" mapstructure:"shards"`
	Replicas  int      `yaml:"replicas" mapstructure:"replicas"`
}

// ConcurrencyConfig sizes the classification worker pool.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls run reporting.
type OutputConfig struct {
	Verbose  bool `yaml:"verbose" mapstructure:"verbose"`
	Progress bool `yaml:"progress" mapstructure:"progress"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		SPARQL: SPARQLConfig{
			Endpoint:          "https://query.wikidata.org/sparql",
			UserAgent:         "Entigest/0.2 (+https://github.com/entigraph/entigest)",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 2,
			Burst:             2,
			MaxRetries:        3,
			RetryDelay:        5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "./.entigest-cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Path:      "./entigest-data",
			BatchSize: 100,
		},
		Search: SearchConfig{
			Addresses: []string{"http://localhost:9200"},
			Index:     "entities",
			Shards:    3,
			Replicas:  0,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 16,
		},
		Output: OutputConfig{
			Progress: true,
		},
	}
}
