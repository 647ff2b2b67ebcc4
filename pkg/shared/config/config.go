// 指示: miu200521358
// Package config はユーザー設定ファイルを読み込む。
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

const (
	// DefaultAnimationName は出力アニメーション名の既定値。
	DefaultAnimationName = "Animation"
	// DefaultRotateAxis はレスト姿勢回転軸の既定値。
	DefaultRotateAxis = "Z"
	// DefaultRotateAngle はレスト姿勢回転角度の既定値。
	DefaultRotateAngle = "-90"
	// DefaultLogLevel はログレベルの既定値。
	DefaultLogLevel = "info"
	// DefaultFps は既定のフレームレート。
	DefaultFps = 30.0
)

// Config はユーザー設定を表す。
type Config struct {
	Export ExportConfig `yaml:"export"`
	Rotate RotateConfig `yaml:"rotate"`
	Log    LogConfig    `yaml:"log"`
}

// ExportConfig はアニメーション書き出し設定を表す。
type ExportConfig struct {
	CompressionLevel  int     `yaml:"compression_level"`
	FrameStart        *int    `yaml:"frame_start,omitempty"`
	FrameEnd          *int    `yaml:"frame_end,omitempty"`
	Fps               float64 `yaml:"fps"`
	CompressContainer bool    `yaml:"compress_container"`
	AnimationName     string  `yaml:"animation_name"`
}

// RotateConfig はレスト姿勢回転設定を表す。
type RotateConfig struct {
	Axis  string          `yaml:"axis"`
	Angle AngleExpression `yaml:"angle"`
}

// LogConfig はログ設定を表す。
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default は既定値の設定を返す。
func Default() Config {
	return Config{
		Export: ExportConfig{
			Fps:           DefaultFps,
			AnimationName: DefaultAnimationName,
		},
		Rotate: RotateConfig{
			Axis:  DefaultRotateAxis,
			Angle: AngleExpression(DefaultRotateAngle),
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Load は設定ファイルを読み込む。未指定の項目は既定値のまま残る。
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, merrors.NewMissingInput("設定ファイルが見つかりません: %s", err, path)
		}
		return cfg, merrors.NewParseFailed("設定ファイルの読み取りに失敗しました: %s", err, path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, merrors.NewParseFailed("設定ファイルの解析に失敗しました: %s", err, path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate は設定値を検証し、すべての不正をまとめて返す。
func (c Config) Validate() error {
	var errs error
	if c.Export.CompressionLevel < 0 || c.Export.CompressionLevel > 4 {
		errs = merrors.Append(errs, merrors.NewInvalidLevel("export.compression_level は0〜4で指定してください: %d", nil, c.Export.CompressionLevel))
	}
	if c.Export.Fps <= 0 {
		errs = merrors.Append(errs, merrors.NewInvalidRange("export.fps は正の値で指定してください: %g", nil, c.Export.Fps))
	}
	if c.Export.FrameStart != nil && c.Export.FrameEnd != nil && *c.Export.FrameEnd < *c.Export.FrameStart {
		errs = merrors.Append(errs, merrors.NewInvalidRange("export.frame_end が frame_start より前です: %d < %d", nil, *c.Export.FrameEnd, *c.Export.FrameStart))
	}
	if _, err := mmath.ParseAxis(c.Rotate.Axis); err != nil {
		errs = merrors.Append(errs, err)
	}
	if _, err := c.Rotate.Angle.Degrees(); err != nil {
		errs = merrors.Append(errs, err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = merrors.Append(errs, merrors.NewInvalidRange("log.level が不正です: %s", nil, c.Log.Level))
	}
	return errs
}

// Marshal は設定をYAMLへ変換する。
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
