package domain

import (
	"errors"
	"strings"
)

// 試行失敗の分類です。errors.Is で判定できます。
var (
	ErrNoCandidates  = errors.New("no result returned (likely safety filter)")
	ErrSafetyBlocked = errors.New("blocked by safety filter")
	ErrNoImageData   = errors.New("no image data in response")
)

// 認証まわりのユーザー向けメッセージです。
const (
	AuthReasonMissingCredentials = "username and password are required"
	AuthReasonAccountNotFound    = "account does not exist"
	AuthReasonAccountExists      = "account already exists"
	AuthReasonInvalidPassword    = "invalid password"
	AuthReasonNotLoggedIn        = "not logged in"
	AuthReasonAlreadyLoggedIn    = "already logged in; log out first"
)

// keyNotFoundPattern は PRO 用キーが無効・未選択のときにリモートが返すエラーの断片です。
const keyNotFoundPattern = "Requested entity was not found"

// ValidationError は送信前の入力検証エラーです。ネットワーク呼び出しより前に返ります。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthError はログイン・登録の失敗です。状態は変化しません。
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// FailureKind は試行失敗の分類です。メトリクスのラベルにも使います。
type FailureKind string

const (
	FailureNoCandidates  FailureKind = "no_candidates"
	FailureSafetyBlocked FailureKind = "safety_blocked"
	FailureNoImageData   FailureKind = "no_image_data"
	FailureTransport     FailureKind = "transport_error"
)

// ClassifyFailure は試行のエラーを分類します。既知の分類以外は通信エラー扱いです。
func ClassifyFailure(err error) FailureKind {
	switch {
	case errors.Is(err, ErrNoCandidates):
		return FailureNoCandidates
	case errors.Is(err, ErrSafetyBlocked):
		return FailureSafetyBlocked
	case errors.Is(err, ErrNoImageData):
		return FailureNoImageData
	default:
		return FailureTransport
	}
}

// AttemptFailure はバッチ内の1試行の失敗です。
// メッセージは原因のエラーそのままで、バッチの外には出ません。
type AttemptFailure struct {
	Attempt int
	Kind    FailureKind
	Err     error
}

func (e *AttemptFailure) Error() string { return e.Err.Error() }

func (e *AttemptFailure) Unwrap() error { return e.Err }

// BatchFailure は全試行が失敗したときのエラーです。
// 代表として1回目の試行のメッセージを返します。
type BatchFailure struct {
	Failures []*AttemptFailure
}

func (e *BatchFailure) Error() string {
	if len(e.Failures) > 0 && e.Failures[0] != nil {
		if msg := e.Failures[0].Error(); msg != "" {
			return msg
		}
	}
	return "all generation attempts failed"
}

// Unwrap は1回目の試行の失敗を返します。
func (e *BatchFailure) Unwrap() error {
	if len(e.Failures) == 0 || e.Failures[0] == nil {
		return nil
	}
	return e.Failures[0]
}

// KeyProvisioningError は API キーの再選択を促したことを示します。
// 終端エラーではなく、キーを選び直して再実行できます。
type KeyProvisioningError struct {
	// Model はキーを必要としたモデルの表示名です。
	Model string
	Err   error
}

func (e *KeyProvisioningError) Error() string {
	model := e.Model
	if model == "" {
		model = "the selected model"
	}
	return "no valid API key for " + model + "; please select a key and try again: " + e.Err.Error()
}

func (e *KeyProvisioningError) Unwrap() error { return e.Err }

// IsKeyNotFound はエラーがキー未設定・無効を示すパターンか判定します。
func IsKeyNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), keyNotFoundPattern)
}
