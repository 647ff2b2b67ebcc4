// 指示: miu200521358
// Package messages はCLI表示に使うメッセージキーと翻訳カタログを提供する。
package messages

// メッセージキー一覧。
const (
	HelpUsageTitle = "使い方"
	HelpUsage      = "使い方説明"
	HelpExport     = "エクスポート説明"
	HelpRotate     = "レスト姿勢回転説明"

	LabelScenePath     = "シーン入力"
	LabelRootName      = "ドライバールート"
	LabelSkeletonPath  = "スケルトン入力"
	LabelOutputPath    = "アニメーション出力"
	LabelLevel         = "圧縮レベル"
	LabelFrameStart    = "開始フレーム"
	LabelFrameEnd      = "終了フレーム"
	LabelFps           = "フレームレート"
	LabelConfigPath    = "設定ファイル"
	LabelArmatureName  = "アーマチュア"
	LabelRotateAxis    = "回転軸"
	LabelRotateAngle   = "回転角度"
	LabelRotatedOutput = "回転結果出力"

	MessageLoadFailed       = "読み込み失敗"
	MessageSaveFailed       = "保存失敗"
	MessageExportFailed     = "エクスポート失敗"
	MessageRotateFailed     = "レスト姿勢回転失敗"
	MessageSceneRequired    = "シーンファイルを指定してください"
	MessageRootRequired     = "ドライバールートを指定してください"
	MessageRootNotFound     = "ドライバールートが見つかりません: %s"
	MessageArmatureNotFound = "アーマチュアが見つかりません: %s"

	LogExportSuccess = "アニメーション出力成功: %s (リンク%d件 / %dフレーム / ノード%d件)"
	LogRotateSuccess = "レスト姿勢回転成功: ボーン%d件 / 復元%d件"
	LogRotateWarning = "レスト姿勢回転警告: %v"
	LogProgress      = "進捗: %s"
)
