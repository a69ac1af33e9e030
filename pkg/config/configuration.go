// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"

	"github.com/BurntSushi/toml"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/logutil"
)

const (
	PoolPolicyBuffer = "pool"
	PoolPolicyDirect = "direct"

	ReaderKindAsync   = "async"
	ReaderKindDirect  = "direct"
	ReaderKindCaching = "caching"

	defaultPoolCapacity     = 16
	defaultQueueCapacity    = 16
	defaultProducerPoolSize = 4
	defaultMapCapacity      = 4
)

// Config is the toml configuration of the batch execution core.
type Config struct {
	Log logutil.LogConfig `toml:"log"`

	Batch BatchParameters `toml:"batch"`

	Pool PoolParameters `toml:"buffer-pool"`

	Reader ReaderParameters `toml:"reader"`

	HashMap HashMapParameters `toml:"hashmap"`
}

// BatchParameters of the operator library
type BatchParameters struct {
	// DisableSIMD forces the scalar kernels even if the cpu supports the
	// lane-chunked ones.
	DisableSIMD bool `toml:"disable-simd"`
}

// PoolParameters of the scratch vector allocation manager
type PoolParameters struct {
	// Policy is one of pool or direct.
	Policy string `toml:"policy"`

	// InitialCapacity is the number of vectors of each kind allocated up front.
	InitialCapacity int `toml:"initial-capacity"`
}

// ReaderParameters of the table readers
type ReaderParameters struct {
	// Kind is one of async, direct or caching.
	Kind string `toml:"kind"`

	// QueueCapacity bounds the number of decoded batches buffered ahead of
	// the consumer.
	QueueCapacity int `toml:"queue-capacity"`

	// ProducerPoolSize is the number of producer tasks that may run at once.
	ProducerPoolSize int `toml:"producer-pool-size"`

	// Projection lists the column ordinals to materialize, empty means all.
	Projection []int `toml:"projection"`
}

// HashMapParameters of the join and aggregation maps
type HashMapParameters struct {
	// InitialCapacity must be a power of two larger than one.
	InitialCapacity int `toml:"initial-capacity"`

	// EstimateCapacity sizes maps from a cardinality sketch of the key
	// column before the build starts.
	EstimateCapacity bool `toml:"estimate-capacity"`
}

// ParseFromFile loads, defaults and validates a configuration file.
func ParseFromFile(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, moerr.NewBadConfig(context.Background(), "decode %s", path).WithDetail(err.Error())
	}
	cfg.FillDefault()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseFromString is ParseFromFile for an in-memory toml document.
func ParseFromString(data string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, moerr.NewBadConfig(context.Background(), "decode toml").WithDetail(err.Error())
	}
	cfg.FillDefault()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FillDefault fills the zero valued fields.
func (c *Config) FillDefault() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Pool.Policy == "" {
		c.Pool.Policy = PoolPolicyBuffer
	}
	if c.Pool.InitialCapacity == 0 {
		c.Pool.InitialCapacity = defaultPoolCapacity
	}
	if c.Reader.Kind == "" {
		c.Reader.Kind = ReaderKindAsync
	}
	if c.Reader.QueueCapacity == 0 {
		c.Reader.QueueCapacity = defaultQueueCapacity
	}
	if c.Reader.ProducerPoolSize == 0 {
		c.Reader.ProducerPoolSize = defaultProducerPoolSize
	}
	if c.HashMap.InitialCapacity == 0 {
		c.HashMap.InitialCapacity = defaultMapCapacity
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	ctx := context.Background()
	switch c.Pool.Policy {
	case PoolPolicyBuffer, PoolPolicyDirect:
	default:
		return moerr.NewBadConfig(ctx, "unknown buffer pool policy %q", c.Pool.Policy)
	}
	if c.Pool.InitialCapacity < 1 {
		return moerr.NewBadConfig(ctx, "buffer pool initial capacity %d", c.Pool.InitialCapacity)
	}
	switch c.Reader.Kind {
	case ReaderKindAsync, ReaderKindDirect, ReaderKindCaching:
	default:
		return moerr.NewBadConfig(ctx, "unknown reader kind %q", c.Reader.Kind)
	}
	if c.Reader.QueueCapacity < 1 {
		return moerr.NewBadConfig(ctx, "reader queue capacity %d", c.Reader.QueueCapacity)
	}
	if c.Reader.ProducerPoolSize < 1 {
		return moerr.NewBadConfig(ctx, "reader producer pool size %d", c.Reader.ProducerPoolSize)
	}
	for _, col := range c.Reader.Projection {
		if col < 0 {
			return moerr.NewBadConfig(ctx, "negative projected column %d", col)
		}
	}
	if n := c.HashMap.InitialCapacity; n < 2 || n&(n-1) != 0 {
		return moerr.NewBadConfig(ctx, "hashmap initial capacity %d is not a power of two", n)
	}
	return nil
}
