// Package config loads the updater, dashboard and scheduler settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/utils"
)

// Config is populated by envconfig. Redis and Temporal connection settings are read by
// their own clients (REDIS_*, TEMPORAL_HOSTPORT, TEMPORAL_NAMESPACE).
type Config struct {
	PostgresURL string `envconfig:"POSTGRES_URL" default:"postgres://localhost:5432/velastools"`

	MainnetRPCURL string `envconfig:"MAINNET_RPC_URL" default:"https://api.velas.com"`
	TestnetRPCURL string `envconfig:"TESTNET_RPC_URL" default:"https://api.testnet.velas.com"`
	DevnetRPCURL  string `envconfig:"DEVNET_RPC_URL"`
	RPCRateLimit  int    `envconfig:"RPC_RPS" default:"10"`

	NodeBinary     string        `envconfig:"NODE_BINARY" default:"velas"`
	GrabberTimeout time.Duration `envconfig:"GRABBER_TIMEOUT" default:"2m"`

	UpdaterParallelism int      `envconfig:"UPDATER_PARALLELISM" default:"1"`
	CreditsClusters    []string `envconfig:"CREDITS_CLUSTERS" default:"testnet,mainnet"`
	RewardsClusters    []string `envconfig:"REWARDS_CLUSTERS" default:"mainnet"`
	RewardsEpochs      int      `envconfig:"REWARDS_EPOCHS" default:"1"`

	Addr         string        `envconfig:"ADDR" default:":3001"`
	MetricsAddr  string        `envconfig:"METRICS_ADDR" default:":9090"`
	RedisEnabled bool          `envconfig:"REDIS_ENABLED" default:"false"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	TemporalEnabled bool   `envconfig:"TEMPORAL_ENABLED" default:"false"`
	TaskQueue       string `envconfig:"TEMPORAL_TASK_QUEUE" default:"velastools"`

	CreditsCron string        `envconfig:"CREDITS_CRON" default:"0 */10 * * * *"`
	RewardsCron string        `envconfig:"REWARDS_CRON" default:"0 0 * * * *"`
	TickTimeout time.Duration `envconfig:"TICK_TIMEOUT" default:"30m"`
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cluster lists and bounds that envconfig cannot express.
func (c *Config) Validate() error {
	if c.UpdaterParallelism < 1 {
		return fmt.Errorf("UPDATER_PARALLELISM must be >= 1, got %d", c.UpdaterParallelism)
	}
	if c.GrabberTimeout <= 0 {
		return fmt.Errorf("GRABBER_TIMEOUT must be positive, got %s", c.GrabberTimeout)
	}
	if _, err := c.CreditsTargets(); err != nil {
		return fmt.Errorf("CREDITS_CLUSTERS: %w", err)
	}
	if _, err := c.RewardsTargets(); err != nil {
		return fmt.Errorf("REWARDS_CLUSTERS: %w", err)
	}
	return nil
}

// Endpoint returns the RPC URL configured for c.
func (c *Config) Endpoint(cl cluster.Cluster) (string, error) {
	var url string
	switch cl {
	case cluster.Mainnet:
		url = c.MainnetRPCURL
	case cluster.Testnet:
		url = c.TestnetRPCURL
	case cluster.Devnet:
		url = c.DevnetRPCURL
	default:
		return "", fmt.Errorf("%w: %d", cluster.ErrUnknownCluster, uint8(cl))
	}
	if url == "" {
		return "", fmt.Errorf("no RPC endpoint configured for %s", cl)
	}
	return url, nil
}

// Endpoints returns every configured cluster endpoint keyed by cluster.
func (c *Config) Endpoints() map[cluster.Cluster]string {
	out := make(map[cluster.Cluster]string)
	for _, cl := range cluster.All() {
		if url, err := c.Endpoint(cl); err == nil {
			out[cl] = url
		}
	}
	return out
}

// CreditsTargets parses CreditsClusters in order.
func (c *Config) CreditsTargets() ([]cluster.Cluster, error) {
	return cluster.ParseList(utils.Dedup(c.CreditsClusters))
}

// RewardsTargets parses RewardsClusters in order.
func (c *Config) RewardsTargets() ([]cluster.Cluster, error) {
	return cluster.ParseList(utils.Dedup(c.RewardsClusters))
}
