// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3

import (
	"time"

	"github.com/spf13/viper"
)

// Option carries the client configuration.
type Option struct {
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"accesskey"`
	SecretKey    string `mapstructure:"secretkey"`
	SessionToken string `mapstructure:"token"`
	Secure       bool   `mapstructure:"secure"`
	Region       string `mapstructure:"region"`

	// VirtualStyle selects bucket-in-hostname URLs instead of path style.
	VirtualStyle bool `mapstructure:"virtual-style"`

	PoolSize       int           `mapstructure:"pool-size"`
	ConnectTimeout time.Duration `mapstructure:"connect-timeout"`
	ReadTimeout    time.Duration `mapstructure:"read-timeout"`
}

var defaultOption = Option{
	Secure:         true,
	PoolSize:       16,
	ConnectTimeout: 30 * time.Second,
	ReadTimeout:    60 * time.Second,
}

type OptionFunc func(*Option)

func WithEndpoint(endpoint string, secure bool) OptionFunc {
	return func(o *Option) {
		o.Endpoint = endpoint
		o.Secure = secure
	}
}

func WithCredentials(accessKey, secretKey, sessionToken string) OptionFunc {
	return func(o *Option) {
		o.AccessKey = accessKey
		o.SecretKey = secretKey
		o.SessionToken = sessionToken
	}
}

func WithRegion(region string) OptionFunc {
	return func(o *Option) {
		o.Region = region
	}
}

func WithVirtualStyle() OptionFunc {
	return func(o *Option) {
		o.VirtualStyle = true
	}
}

func WithPoolSize(n int) OptionFunc {
	return func(o *Option) {
		o.PoolSize = n
	}
}

func WithTimeouts(connect, read time.Duration) OptionFunc {
	return func(o *Option) {
		o.ConnectTimeout = connect
		o.ReadTimeout = read
	}
}

// NewOption builds an Option from the defaults plus the given modifiers.
func NewOption(fns ...OptionFunc) *Option {
	o := defaultOption
	for _, fn := range fns {
		fn(&o)
	}
	return &o
}

// ParseOption reads the client configuration from a viper instance, falling
// back to the defaults for unset keys.
func ParseOption(v *viper.Viper) *Option {
	o := defaultOption

	if v.IsSet("endpoint") {
		o.Endpoint = v.GetString("endpoint")
	}
	if v.IsSet("accesskey") {
		o.AccessKey = v.GetString("accesskey")
	}
	if v.IsSet("secretkey") {
		o.SecretKey = v.GetString("secretkey")
	}
	if v.IsSet("token") {
		o.SessionToken = v.GetString("token")
	}
	if v.IsSet("secure") {
		o.Secure = v.GetBool("secure")
	}
	if v.IsSet("region") {
		o.Region = v.GetString("region")
	}
	if v.IsSet("virtual-style") {
		o.VirtualStyle = v.GetBool("virtual-style")
	}
	if v.IsSet("pool-size") {
		o.PoolSize = v.GetInt("pool-size")
	}
	if v.IsSet("connect-timeout") {
		o.ConnectTimeout = v.GetDuration("connect-timeout")
	}
	if v.IsSet("read-timeout") {
		o.ReadTimeout = v.GetDuration("read-timeout")
	}

	return &o
}
