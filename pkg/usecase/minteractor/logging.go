// 指示: miu200521358
package minteractor

import "github.com/miu200521358/mu_rig_retarget/pkg/shared/logging"

// logRetargetInfo はリターゲット処理の情報ログを出力する。
func logRetargetInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logRetargetDebug はリターゲット処理のデバッグログを出力する。
func logRetargetDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

// logRetargetWarn はリターゲット処理の警告ログを出力する。
func logRetargetWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}
