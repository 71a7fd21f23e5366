package config

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/consul/api"
)

// LoadConfigFromConsulKV 从 Consul KV 拉取整份配置。
// value 必须是与 Config 同构的 JSON；动态 watch 由调用方自行实现。
func LoadConfigFromConsulKV(host string, port int, key string) (*Config, error) {
	if key == "" {
		return nil, fmt.Errorf("consul kv key is empty")
	}
	if host == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 8500
	}

	client, err := api.NewClient(&api.Config{
		Address: fmt.Sprintf("%s:%d", host, port),
	})
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	pair, _, err := client.KV().Get(key, nil)
	if err != nil {
		return nil, fmt.Errorf("read consul kv %s: %w", key, err)
	}
	if pair == nil || len(pair.Value) == 0 {
		return nil, fmt.Errorf("consul kv %s: not found or empty", key)
	}

	cfg := &Config{}
	if err := json.Unmarshal(pair.Value, cfg); err != nil {
		return nil, fmt.Errorf("parse consul kv %s: %w", key, err)
	}
	return cfg, nil
}
