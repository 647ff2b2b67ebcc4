// 指示: miu200521358
package mmath

import (
	"fmt"
	"math"
	"strings"
)

// Axis は回転軸を表す。
type Axis string

const (
	// AXIS_X はX軸。
	AXIS_X Axis = "X"
	// AXIS_Y はY軸。
	AXIS_Y Axis = "Y"
	// AXIS_Z はZ軸。
	AXIS_Z Axis = "Z"
)

// ParseAxis は軸名を解析する。大文字小文字は区別しない。
func ParseAxis(name string) (Axis, error) {
	switch Axis(strings.ToUpper(strings.TrimSpace(name))) {
	case AXIS_X:
		return AXIS_X, nil
	case AXIS_Y:
		return AXIS_Y, nil
	case AXIS_Z:
		return AXIS_Z, nil
	default:
		return "", fmt.Errorf("回転軸が不正です: %q", name)
	}
}

// DegToRad は度数法を弧度法へ変換する。
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// RadToDeg は弧度法を度数法へ変換する。
func RadToDeg(radians float64) float64 {
	return radians * 180.0 / math.Pi
}
