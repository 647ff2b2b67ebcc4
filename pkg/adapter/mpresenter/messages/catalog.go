// 指示: miu200521358
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// translations は言語ごとの表示文字列。キーは日本語の原文。
var translations = map[language.Tag]map[string]string{
	language.Japanese: {
		HelpUsage:  "mu_rig_retarget export|rotate [flags]",
		HelpExport: "ドライバー階層のアニメーションをスケルトンへ転写し、圧縮して書き出します",
		HelpRotate: "アーマチュアのレスト姿勢を回転し、子オブジェクトの見た目を保ちます",
	},
	language.English: {
		HelpUsageTitle:          "Usage",
		HelpUsage:               "mu_rig_retarget export|rotate [flags]",
		HelpExport:              "Retarget the driver hierarchy onto a skeleton and export a compressed animation",
		HelpRotate:              "Rotate the rest pose of an armature while keeping attached objects in place",
		LabelScenePath:          "Scene input",
		LabelRootName:           "Driver root",
		LabelSkeletonPath:       "Skeleton input",
		LabelOutputPath:         "Animation output",
		LabelLevel:              "Compression level",
		LabelFrameStart:         "Start frame",
		LabelFrameEnd:           "End frame",
		LabelFps:                "Frame rate",
		LabelConfigPath:         "Config file",
		LabelArmatureName:       "Armature",
		LabelRotateAxis:         "Rotation axis",
		LabelRotateAngle:        "Rotation angle",
		LabelRotatedOutput:      "Rotated output",
		MessageLoadFailed:       "Load failed",
		MessageSaveFailed:       "Save failed",
		MessageExportFailed:     "Export failed",
		MessageRotateFailed:     "Rest pose rotation failed",
		MessageSceneRequired:    "Specify a scene file",
		MessageRootRequired:     "Specify a driver root",
		MessageRootNotFound:     "Driver root not found: %s",
		MessageArmatureNotFound: "Armature not found: %s",
		LogExportSuccess:        "Exported animation: %s (%d links / %d frames / %d nodes)",
		LogRotateSuccess:        "Rotated rest pose: %d bones / %d restored",
		LogRotateWarning:        "Rest pose rotation warning: %v",
		LogProgress:             "Progress: %s",
	},
}

// supportedLanguages は翻訳を持つ言語。
var supportedLanguages = []language.Tag{language.Japanese, language.English}

var (
	defaultCatalog  = buildCatalog()
	languageMatcher = language.NewMatcher(supportedLanguages)
)

func buildCatalog() *catalog.Builder {
	builder := catalog.NewBuilder(catalog.Fallback(language.Japanese))
	for tag, entries := range translations {
		for key, text := range entries {
			if err := builder.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
	return builder
}

// NewPrinter は指定言語の翻訳プリンタを返す。解釈できない言語は日本語になる。
func NewPrinter(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Japanese
	}
	_, index, confidence := languageMatcher.Match(tag)
	if confidence == language.No {
		return message.NewPrinter(language.Japanese, message.Catalog(defaultCatalog))
	}
	return message.NewPrinter(supportedLanguages[index], message.Catalog(defaultCatalog))
}

// Translate は指定言語でキーを整形する。
func Translate(lang, key string, params ...any) string {
	return NewPrinter(lang).Sprintf(key, params...)
}
