package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
)

type GameConfig struct {
	BothStealPolicy   string         `env:"BOTH_STEAL_POLICY" envDefault:"burn"`
	SinkAddress       common.Address `env:"SINK_ADDRESS" envDefault:"0x000000000000000000000000000000000000dEaD"`
	JoinableScanBatch int            `env:"JOINABLE_SCAN_BATCH" envDefault:"64"`
	MaxJoinable       int            `env:"MAX_JOINABLE" envDefault:"100"`
	EventBufferSize   int            `env:"EVENT_BUFFER_SIZE" envDefault:"1000"`
	RoomCacheSize     int            `env:"ROOM_CACHE_SIZE" envDefault:"1024"`

	IdentityRequireIssued bool `env:"IDENTITY_REQUIRE_ISSUED" envDefault:"true"`
}

func LoadGame() (GameConfig, error) {
	var cfg GameConfig
	err := env.Parse(&cfg)
	return cfg, err
}
