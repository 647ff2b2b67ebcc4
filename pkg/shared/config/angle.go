// 指示: miu200521358
package config

import (
	"math"
	"strconv"
	"strings"

	goValuate "gopkg.in/Knetic/govaluate.v3"
	"gopkg.in/yaml.v3"

	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

const maxAngleDegrees = 360.0

// AngleExpression は度数法の角度を表す数式。"-90" や "45*2" などを受け付ける。
type AngleExpression string

// UnmarshalYAML は数値と文字列のどちらも数式として受け取る。
func (a *AngleExpression) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return merrors.NewParseFailed("角度はスカラー値で指定してください: line=%d", nil, node.Line)
	}
	*a = AngleExpression(node.Value)
	return nil
}

// Degrees は数式を評価して度数を返す。
func (a AngleExpression) Degrees() (float64, error) {
	return EvaluateAngle(string(a))
}

// EvaluateAngle は角度の数式を評価する。結果は -360〜360 の範囲に限る。
func EvaluateAngle(expr string) (float64, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return 0, merrors.NewParseFailed("角度が空です", nil)
	}
	if value, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return checkAngle(trimmed, value)
	}
	expression, err := goValuate.NewEvaluableExpression(trimmed)
	if err != nil {
		return 0, merrors.NewParseFailed("角度の数式を解析できません: %s", err, trimmed)
	}
	result, err := expression.Evaluate(nil)
	if err != nil {
		return 0, merrors.NewParseFailed("角度の数式を評価できません: %s", err, trimmed)
	}
	value, ok := result.(float64)
	if !ok {
		return 0, merrors.NewParseFailed("角度の数式が数値になりません: %s", nil, trimmed)
	}
	return checkAngle(trimmed, value)
}

func checkAngle(expr string, value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < -maxAngleDegrees || value > maxAngleDegrees {
		return 0, merrors.NewInvalidRange("角度は-360〜360で指定してください: %s=%g", nil, expr, value)
	}
	return value, nil
}
