// 指示: miu200521358
// Package merrors はリターゲット処理で利用するエラー種別を提供する。
package merrors

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrorKind はエラー種別を表す。
type ErrorKind string

const (
	// KindMissingInput は必須入力不足。
	KindMissingInput ErrorKind = "missing_input"
	// KindNotArmature は対象がアーマチュアではない。
	KindNotArmature ErrorKind = "not_armature"
	// KindEmptyImport は読み込み結果が空。
	KindEmptyImport ErrorKind = "empty_import"
	// KindInvalidRange は値域外の入力。
	KindInvalidRange ErrorKind = "invalid_range"
	// KindInvalidLevel は圧縮レベル不正。
	KindInvalidLevel ErrorKind = "invalid_level"
	// KindParseFailed はアセット解析失敗。
	KindParseFailed ErrorKind = "parse_failed"
	// KindFormatNotSupported は未対応形式。
	KindFormatNotSupported ErrorKind = "format_not_supported"
	// KindSaveFailed は保存失敗。
	KindSaveFailed ErrorKind = "save_failed"
	// KindOptimizerFailed はアニメーション最適化失敗。
	KindOptimizerFailed ErrorKind = "optimizer_failed"
	// KindEditModeActive は編集セッション中の操作。
	KindEditModeActive ErrorKind = "edit_mode_active"
	// KindAttachmentInconsistent は子オブジェクト復元時の不整合。
	KindAttachmentInconsistent ErrorKind = "attachment_inconsistent"
	// KindNodeNotFound はノード参照不正。
	KindNodeNotFound ErrorKind = "node_not_found"
)

// 種別判定用の番兵エラー。errors.Is で種別を判定する。
var (
	ErrMissingInput           = &Error{Kind: KindMissingInput}
	ErrNotArmature            = &Error{Kind: KindNotArmature}
	ErrEmptyImport            = &Error{Kind: KindEmptyImport}
	ErrInvalidRange           = &Error{Kind: KindInvalidRange}
	ErrInvalidLevel           = &Error{Kind: KindInvalidLevel}
	ErrParseFailed            = &Error{Kind: KindParseFailed}
	ErrFormatNotSupported     = &Error{Kind: KindFormatNotSupported}
	ErrSaveFailed             = &Error{Kind: KindSaveFailed}
	ErrOptimizerFailed        = &Error{Kind: KindOptimizerFailed}
	ErrEditModeActive         = &Error{Kind: KindEditModeActive}
	ErrAttachmentInconsistent = &Error{Kind: KindAttachmentInconsistent}
	ErrNodeNotFound           = &Error{Kind: KindNodeNotFound}
)

// Error は種別付きエラーを表す。
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error はエラーメッセージを返す。
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	message := e.Message
	if message == "" {
		message = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", message, e.Cause)
	}
	return message
}

// Unwrap は原因エラーを返す。
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is は種別が一致するか判定する。
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Kind == other.Kind
}

// KindOf はエラー種別を返す。種別付きエラーでなければ空文字を返す。
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) && typed != nil {
		return typed.Kind
	}
	return ""
}

func newError(kind ErrorKind, format string, cause error, params ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, params...),
		Cause:   cause,
	}
}

// NewMissingInput は必須入力不足エラーを生成する。
func NewMissingInput(format string, cause error, params ...any) *Error {
	return newError(KindMissingInput, format, cause, params...)
}

// NewNotArmature はアーマチュア以外が指定されたエラーを生成する。
func NewNotArmature(format string, cause error, params ...any) *Error {
	return newError(KindNotArmature, format, cause, params...)
}

// NewEmptyImport は読み込み結果が空のエラーを生成する。
func NewEmptyImport(format string, cause error, params ...any) *Error {
	return newError(KindEmptyImport, format, cause, params...)
}

// NewInvalidRange は値域外エラーを生成する。
func NewInvalidRange(format string, cause error, params ...any) *Error {
	return newError(KindInvalidRange, format, cause, params...)
}

// NewInvalidLevel は圧縮レベル不正エラーを生成する。
func NewInvalidLevel(format string, cause error, params ...any) *Error {
	return newError(KindInvalidLevel, format, cause, params...)
}

// NewParseFailed は解析失敗エラーを生成する。
func NewParseFailed(format string, cause error, params ...any) *Error {
	return newError(KindParseFailed, format, cause, params...)
}

// NewFormatNotSupported は未対応形式エラーを生成する。
func NewFormatNotSupported(format string, cause error, params ...any) *Error {
	return newError(KindFormatNotSupported, format, cause, params...)
}

// NewSaveFailed は保存失敗エラーを生成する。
func NewSaveFailed(format string, cause error, params ...any) *Error {
	return newError(KindSaveFailed, format, cause, params...)
}

// NewOptimizerFailed は最適化失敗エラーを生成する。
func NewOptimizerFailed(format string, cause error, params ...any) *Error {
	return newError(KindOptimizerFailed, format, cause, params...)
}

// NewEditModeActive は編集セッション中エラーを生成する。
func NewEditModeActive(format string, cause error, params ...any) *Error {
	return newError(KindEditModeActive, format, cause, params...)
}

// NewAttachmentInconsistent は子オブジェクト復元不整合エラーを生成する。
func NewAttachmentInconsistent(format string, cause error, params ...any) *Error {
	return newError(KindAttachmentInconsistent, format, cause, params...)
}

// NewNodeNotFound はノード参照不正エラーを生成する。
func NewNodeNotFound(format string, cause error, params ...any) *Error {
	return newError(KindNodeNotFound, format, cause, params...)
}

// Append は警告を蓄積する。どちらかがnilならもう一方を返す。
func Append(into error, err error) error {
	return multierr.Append(into, err)
}

// Errors は蓄積済みエラーを個別に展開する。
func Errors(err error) []error {
	return multierr.Errors(err)
}
