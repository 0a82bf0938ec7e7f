package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type settings struct {
	LogLevel      string
	MetricsAddr   string
	MaxFrameSize  int
	HighWaterMark int
	ReadSize      int
	MaxLength     int
	LengthWidth   int
	Retain        int
	FlushSize     int
	FlushTimeout  time.Duration
	DialTimeout   time.Duration
}

func defaultSettings() settings {
	return settings{
		LogLevel:     "info",
		LengthWidth:  4,
		FlushSize:    100,
		FlushTimeout: time.Second,
		DialTimeout:  5 * time.Second,
	}
}

type fileConfig struct {
	LogLevel      string `toml:"log_level"`
	MetricsAddr   string `toml:"metrics_addr"`
	MaxFrameSize  int    `toml:"max_frame_size"`
	HighWaterMark int    `toml:"high_water_mark"`
	ReadSize      int    `toml:"read_size"`
	MaxLength     int    `toml:"max_length"`
	LengthWidth   int    `toml:"length_width"`
	Retain        int    `toml:"retain"`
	FlushSize     int    `toml:"flush_size"`
	FlushTimeout  string `toml:"flush_timeout"`
	DialTimeout   string `toml:"dial_timeout"`
}

func loadSettings(path string) (settings, error) {
	s := defaultSettings()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return settings{}, fmt.Errorf("load config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return settings{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("log_level") {
		s.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("metrics_addr") {
		s.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if meta.IsDefined("max_frame_size") {
		s.MaxFrameSize = raw.MaxFrameSize
	}

	if meta.IsDefined("high_water_mark") {
		s.HighWaterMark = raw.HighWaterMark
	}

	if meta.IsDefined("read_size") {
		s.ReadSize = raw.ReadSize
	}

	if meta.IsDefined("max_length") {
		s.MaxLength = raw.MaxLength
	}

	if meta.IsDefined("length_width") {
		s.LengthWidth = raw.LengthWidth
	}

	if meta.IsDefined("retain") {
		s.Retain = raw.Retain
	}

	if meta.IsDefined("flush_size") {
		s.FlushSize = raw.FlushSize
	}

	if meta.IsDefined("flush_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.FlushTimeout))
		if err != nil {
			return settings{}, fmt.Errorf("parse flush_timeout: %w", err)
		}
		s.FlushTimeout = d
	}

	if meta.IsDefined("dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.DialTimeout))
		if err != nil {
			return settings{}, fmt.Errorf("parse dial_timeout: %w", err)
		}
		s.DialTimeout = d
	}

	if err := s.validate(); err != nil {
		return settings{}, err
	}

	return s, nil
}

func (s settings) validate() error {
	switch {
	case s.MaxFrameSize < 0:
		return fmt.Errorf("max_frame_size can't be < 0")
	case s.HighWaterMark < 0:
		return fmt.Errorf("high_water_mark can't be < 0")
	case s.ReadSize < 0:
		return fmt.Errorf("read_size can't be < 0")
	case s.MaxLength < 0:
		return fmt.Errorf("max_length can't be < 0")
	case s.Retain < 0:
		return fmt.Errorf("retain can't be < 0")
	case s.FlushSize < 1:
		return fmt.Errorf("flush_size can't be < 1")
	case s.FlushTimeout < 0:
		return fmt.Errorf("flush_timeout can't be < 0")
	case s.DialTimeout < 0:
		return fmt.Errorf("dial_timeout can't be < 0")
	}
	switch s.LengthWidth {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("length_width must be 1, 2, 4 or 8")
	}
	return nil
}
