// Package errmsg turns any error from the app into one message for the user.
package errmsg

import (
	"errors"
	"strings"

	"github.com/sadopc/mindjournal/internal/auth"
	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

type text struct{ ja, en string }

func (t text) in(lang string) string {
	if lang == "en" {
		return t.en
	}
	return t.ja
}

var sentinels = []struct {
	err error
	msg text
}{
	{auth.ErrInvalidCredentials, text{"メールアドレスまたはパスワードが正しくありません", "Incorrect email or password"}},
	{auth.ErrEmailUnconfirmed, text{"メールアドレスの確認が完了していません", "Your email address has not been confirmed"}},
	{auth.ErrRateLimited, text{"リクエストが多すぎます。しばらく待ってから再試行してください", "Too many attempts. Wait a moment and try again"}},
	{auth.ErrAlreadyRegistered, text{"このメールアドレスは既に登録されています", "This email address is already registered"}},
	{auth.ErrWeakPassword, text{"パスワードは6文字以上で入力してください", "Password must be at least 6 characters"}},
	{auth.ErrInvalidEmail, text{"メールアドレスの形式が正しくありません", "The email address is not valid"}},
	{auth.ErrNotConnected, text{"バックエンドが設定されていません。接続先とアクセスキーを設定してください", "Backend is not configured. Set the backend URL and access key"}},
	{auth.ErrNoSession, text{"ユーザーが認証されていません", "You are not signed in"}},
	{store.ErrNotFound, text{"データが見つかりません", "The item was not found"}},
	{store.ErrDuplicate, text{"同じデータが既に存在します", "The item already exists"}},
}

// substring fallbacks for driver and network errors, checked in order.
var fragments = []struct {
	match []string
	msg   text
}{
	{[]string{"does not exist"}, text{"データベーステーブルが見つかりません。バックエンドの設定を確認してください", "Database table not found. Check the backend setup"}},
	{[]string{"no such table"}, text{"データベーステーブルが見つかりません。バックエンドの設定を確認してください", "Database table not found. Check the backend setup"}},
	{[]string{"permission"}, text{"データベースへのアクセス権限がありません", "You do not have permission to access the database"}},
	{[]string{"connection refused"}, text{"ネットワーク接続を確認してください", "Check your network connection"}},
	{[]string{"database is closed"}, text{"データベースに接続されていません", "The database is not connected"}},
}

// fallback is used when nothing more specific matches.
var fallback = text{"エラーが発生しました。もう一度お試しください", "Something went wrong. Please try again"}

// Message maps err to a localized message. Any lang other than "en" gets
// Japanese. A nil error yields "".
func Message(err error, lang string) string {
	if err == nil {
		return ""
	}
	var verrs validate.Errors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Message(lang)
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.msg.in(lang)
		}
	}
	lower := strings.ToLower(err.Error())
	for _, f := range fragments {
		for _, m := range f.match {
			if strings.Contains(lower, m) {
				return f.msg.in(lang)
			}
		}
	}
	return fallback.in(lang)
}

// Action prefixes a failed action with its name, e.g. "日記の保存に失敗しました".
func Action(action string, err error, lang string) string {
	msg := Message(err, lang)
	if action == "" {
		return msg
	}
	if lang == "en" {
		return "Could not " + action + ": " + msg
	}
	return action + "に失敗しました: " + msg
}
