package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/ecomrec/train"
)

// AppConfig 是应用级配置，覆盖离线训练和在线服务两个面。
//
// 示例（YAML）：
//
//	data:
//	  interactions: data/interactions.csv
//	  catalog: data/products.csv
//	train:
//	  emb_size: 64
//	  hidden: [128, 64]
//	  epochs: 3
//	  checkpoint_path: data/ncf.ckpt
//	serve:
//	  top_n: 10
//	redis:
//	  addr: 127.0.0.1:6379
type AppConfig struct {
	Data  DataConfig   `yaml:"data"`
	Train train.Config `yaml:"train"`
	Serve ServeConfig  `yaml:"serve"`
	Redis RedisConfig  `yaml:"redis"`
}

// DataConfig 指定输入数据文件。
type DataConfig struct {
	Interactions string `yaml:"interactions"`
	Catalog      string `yaml:"catalog"`
}

// ServeConfig 是在线服务参数。
type ServeConfig struct {
	TopN    int    `yaml:"top_n"`
	LogMode string `yaml:"log_mode"` // "prod" 输出 JSON，其他值为开发格式
}

// RedisConfig 是可选的 Redis 后端配置，Addr 为空时使用内存存储。
type RedisConfig struct {
	Addr   string `yaml:"addr"`
	DB     int    `yaml:"db"`
	HotKey string `yaml:"hot_key"` // 热门榜有序集合的 key
}

// Load 从 YAML 文件加载应用配置。
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
