// Package config loads the TOML configuration for each of the three
// daemons (shard, broker, enforcer), applying environment-variable
// overrides on top of file defaults exactly as documented in spec.md §6.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func defaultLogging() LoggingConfig {
	return LoggingConfig{Level: "info", Format: "console"}
}

// ShardConfig configures the world shard daemon.
type ShardConfig struct {
	Bind               string        `toml:"bind"`
	WorldSeed          int64         `toml:"world_seed"`
	TickMaxSleep       time.Duration `toml:"tick_max_sleep"`
	BartenderEmoteMs   int64         `toml:"bartender_emote_ms"`
	MobWanderMs        int64         `toml:"mob_wander_ms"`
	RaftLogPath        string        `toml:"raft_log_path"`
	BootstrapAdmins    []string      `toml:"bootstrap_admins"`
	BootstrapAdminSSO  []string      `toml:"bootstrap_admin_sso"`
	WorldDataDir       string        `toml:"world_data_dir"`
	ScriptsDir         string        `toml:"scripts_dir"`
	Logging            LoggingConfig `toml:"logging"`
}

func shardDefaults() *ShardConfig {
	return &ShardConfig{
		Bind:             "0.0.0.0:7600",
		WorldSeed:        1,
		TickMaxSleep:     24 * time.Hour,
		BartenderEmoteMs: 45_000,
		MobWanderMs:      8_000,
		RaftLogPath:      "data/group.log",
		WorldDataDir:     "data/areas",
		ScriptsDir:       "scripts/rooms",
		Logging:          defaultLogging(),
	}
}

// LoadShardConfig reads path, then applies SHARD_*/WORLD_* env overrides.
func LoadShardConfig(path string) (*ShardConfig, error) {
	cfg := shardDefaults()
	if err := decodeIfExists(path, cfg); err != nil {
		return nil, err
	}
	if v := os.Getenv("SHARD_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("WORLD_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.WorldSeed = n
		}
	}
	if v := os.Getenv("WORLD_TICK_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TickMaxSleep = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("BARTENDER_EMOTE_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.BartenderEmoteMs = n
		}
	}
	if v := os.Getenv("MOB_WANDER_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MobWanderMs = n
		}
	}
	if v := os.Getenv("SHARD_RAFT_LOG"); v != "" {
		cfg.RaftLogPath = v
	}
	if v := os.Getenv("SHARD_BOOTSTRAP_ADMINS"); v != "" {
		cfg.BootstrapAdmins = splitNonEmpty(v)
	}
	if v := os.Getenv("SHARD_BOOTSTRAP_ADMIN_SSO"); v != "" {
		cfg.BootstrapAdminSSO = splitNonEmpty(v)
	}
	return cfg, nil
}

// BrokerConfig configures the session broker daemon.
type BrokerConfig struct {
	Bind            string        `toml:"bind"`
	ShardAddr       string        `toml:"shard_addr"`
	AccountsPath    string        `toml:"accounts_path"`
	OIDCTokenURL    string        `toml:"oidc_token_url"`
	OIDCClientID    string        `toml:"oidc_client_id"`
	OIDCClientSec   string        `toml:"oidc_client_secret"`
	OIDCScope       string        `toml:"oidc_scope"`
	ReconnectBackoff time.Duration `toml:"reconnect_backoff"`
	Locale          string        `toml:"locale"`
	Logging         LoggingConfig `toml:"logging"`
}

func brokerDefaults() *BrokerConfig {
	return &BrokerConfig{
		Bind:             "0.0.0.0:7000",
		ShardAddr:        "127.0.0.1:7600",
		AccountsPath:     "data/accounts.json",
		ReconnectBackoff: 2 * time.Second,
		Locale:           "en",
		Logging:          defaultLogging(),
	}
}

// LoadBrokerConfig reads path, then applies SLOPMUD_*/SHARD_ADDR env overrides.
func LoadBrokerConfig(path string) (*BrokerConfig, error) {
	cfg := brokerDefaults()
	if err := decodeIfExists(path, cfg); err != nil {
		return nil, err
	}
	if v := os.Getenv("SLOPMUD_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("SHARD_ADDR"); v != "" {
		cfg.ShardAddr = v
	}
	if v := os.Getenv("SLOPMUD_ACCOUNTS_PATH"); v != "" {
		cfg.AccountsPath = v
	}
	if v := os.Getenv("SLOPMUD_OIDC_TOKEN_URL"); v != "" {
		cfg.OIDCTokenURL = v
	}
	if v := os.Getenv("SLOPMUD_OIDC_CLIENT_ID"); v != "" {
		cfg.OIDCClientID = v
	}
	if v := os.Getenv("SLOPMUD_OIDC_CLIENT_SECRET"); v != "" {
		cfg.OIDCClientSec = v
	}
	if v := os.Getenv("SLOPMUD_OIDC_SCOPE"); v != "" {
		cfg.OIDCScope = v
	}
	if v := os.Getenv("SLOPMUD_LOCALE"); v != "" {
		cfg.Locale = v
	}
	return cfg, nil
}

// EnforcerConfig configures the policy enforcer daemon.
type EnforcerConfig struct {
	AdminSock          string        `toml:"admin_sock"`
	EventsSock         string        `toml:"events_sock"`
	StatusHTTPAddr     string        `toml:"status_http_addr"`
	DNSName            string        `toml:"dns_name"`
	DNSExpectedIP      string        `toml:"dns_expected_ip"`
	DNSIntervalS       int           `toml:"dns_interval_s"`
	ApplySnapshot      bool          `toml:"apply_snapshot"`
	ExemptPrefixesPath string        `toml:"exempt_prefixes_path"`
	NodeID             string        `toml:"node_id"`
	Logging            LoggingConfig `toml:"logging"`
}

func enforcerDefaults() *EnforcerConfig {
	return &EnforcerConfig{
		AdminSock:      "/run/slopmud/enforcer-admin.sock",
		EventsSock:     "/run/slopmud/enforcer-events.sock",
		StatusHTTPAddr: "127.0.0.1:7700",
		DNSIntervalS:   5,
		ApplySnapshot:  true,
		Logging:        defaultLogging(),
	}
}

// LoadEnforcerConfig reads path, then applies SBC_* env overrides.
func LoadEnforcerConfig(path string) (*EnforcerConfig, error) {
	cfg := enforcerDefaults()
	if err := decodeIfExists(path, cfg); err != nil {
		return nil, err
	}
	if v := os.Getenv("SBC_ADMIN_SOCK"); v != "" {
		cfg.AdminSock = v
	}
	if v := os.Getenv("SBC_EVENTS_SOCK"); v != "" {
		cfg.EventsSock = v
	}
	if v := os.Getenv("SBC_STATUS_HTTP"); v != "" {
		cfg.StatusHTTPAddr = v
	}
	if v := os.Getenv("SBC_ENABLE_DNS_NAME"); v != "" {
		cfg.DNSName = v
	}
	if v := os.Getenv("SBC_ENABLE_DNS_IP"); v != "" {
		cfg.DNSExpectedIP = v
	}
	if v := os.Getenv("SBC_ENABLE_DNS_INTERVAL_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DNSIntervalS = n
		}
	}
	if cfg.DNSIntervalS < 1 {
		cfg.DNSIntervalS = 1
	}
	if v := os.Getenv("SBC_APPLY_SNAPSHOT"); v != "" {
		cfg.ApplySnapshot = v != "0" && v != "false"
	}
	if v := os.Getenv("SBC_EXEMPT_PREFIXES_PATH"); v != "" {
		cfg.ExemptPrefixesPath = v
	}
	if v := os.Getenv("SBC_NODE_ID"); v != "" {
		cfg.NodeID = v
	}
	if cfg.NodeID == "" {
		if h, err := os.Hostname(); err == nil {
			cfg.NodeID = h
		}
	}
	return cfg, nil
}

func decodeIfExists(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func splitNonEmpty(s string) []string {
	var out []string
	cur := ""
	flush := func() {
		if cur != "" {
			out = append(out, cur)
			cur = ""
		}
	}
	for _, r := range s {
		if r == ',' {
			flush()
			continue
		}
		cur += string(r)
	}
	flush()
	return out
}
