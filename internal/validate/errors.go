package validate

import (
	"fmt"
	"strings"
)

type Code string

const (
	CodeRequired        Code = "required"
	CodeMinLength       Code = "min_length"
	CodeInvalidEmail    Code = "invalid_email"
	CodeOutOfRange      Code = "out_of_range"
	CodeMismatch        Code = "mismatch"
	CodeEndBeforeStart  Code = "end_before_start"
	CodeInvalidChoice   Code = "invalid_choice"
	CodeInvalidTimezone Code = "invalid_timezone"
	CodeNegative        Code = "negative"
	CodeInvalidDate     Code = "invalid_date"
)

// FieldError is one rule violation on one form field. Min and Max carry the
// bound for length and range codes.
type FieldError struct {
	Field string `json:"field"`
	Code  Code   `json:"code"`
	Min   int    `json:"min,omitempty"`
	Max   int    `json:"max,omitempty"`
}

var labels = map[string][2]string{
	"title":                        {"タイトル", "Title"},
	"content":                      {"内容", "Content"},
	"emotion_score":                {"気分スコア", "Emotion score"},
	"email":                        {"メールアドレス", "Email"},
	"password":                     {"パスワード", "Password"},
	"new_password":                 {"新しいパスワード", "New password"},
	"confirm_password":             {"パスワード確認", "Password confirmation"},
	"full_name":                    {"氏名", "Full name"},
	"start_date":                   {"開始日時", "Start"},
	"end_date":                     {"終了日時", "End"},
	"notification_minutes":         {"通知時間", "Reminder minutes"},
	"theme":                        {"テーマ", "Theme"},
	"language":                     {"言語", "Language"},
	"timezone":                     {"タイムゾーン", "Timezone"},
	"default_notification_minutes": {"デフォルト通知時間", "Default reminder minutes"},
	"body":                         {"リクエスト", "Request body"},
	"month":                        {"月", "Month"},
	"date":                         {"日付", "Date"},
	"format":                       {"形式", "Format"},
}

func label(field, lang string) string {
	l, ok := labels[field]
	if !ok {
		return field
	}
	if lang == "en" {
		return l[1]
	}
	return l[0]
}

// Message renders the error for display. Any language other than "en" gets
// Japanese.
func (e FieldError) Message(lang string) string {
	f := label(e.Field, lang)
	en := lang == "en"
	switch e.Code {
	case CodeRequired:
		if en {
			return f + " is required"
		}
		return f + "を入力してください"
	case CodeMinLength:
		if en {
			return fmt.Sprintf("%s must be at least %d characters", f, e.Min)
		}
		return fmt.Sprintf("%sは%d文字以上で入力してください", f, e.Min)
	case CodeInvalidEmail:
		if en {
			return "Enter a valid email address"
		}
		return "有効なメールアドレスを入力してください"
	case CodeOutOfRange:
		if en {
			return fmt.Sprintf("%s must be between %d and %d", f, e.Min, e.Max)
		}
		return fmt.Sprintf("%sは%dから%dの範囲で入力してください", f, e.Min, e.Max)
	case CodeMismatch:
		if en {
			return "Passwords do not match"
		}
		return "パスワードが一致しません"
	case CodeEndBeforeStart:
		if en {
			return "End must not be before start"
		}
		return "終了日時は開始日時以降にしてください"
	case CodeInvalidChoice:
		if en {
			return f + " has an invalid value"
		}
		return f + "の値が正しくありません"
	case CodeInvalidTimezone:
		if en {
			return "Unknown timezone"
		}
		return "タイムゾーンが正しくありません"
	case CodeNegative:
		if en {
			return f + " must be zero or more"
		}
		return f + "は0以上で入力してください"
	case CodeInvalidDate:
		if en {
			return f + " is not a valid date"
		}
		return f + "の形式が正しくありません"
	}
	return f + ": " + string(e.Code)
}

// Errors is the failure result of every validator in this package.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + string(fe.Code)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Field returns the first error recorded for field, if any.
func (e Errors) Field(field string) (FieldError, bool) {
	for _, fe := range e {
		if fe.Field == field {
			return fe, true
		}
	}
	return FieldError{}, false
}

// Messages returns one rendered message per field, first error wins.
func (e Errors) Messages(lang string) map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message(lang)
		}
	}
	return out
}

func (e *Errors) add(field string, code Code) {
	*e = append(*e, FieldError{Field: field, Code: code})
}

func (e *Errors) addBound(field string, code Code, min, max int) {
	*e = append(*e, FieldError{Field: field, Code: code, Min: min, Max: max})
}

// err returns nil for an empty list so callers never see a typed nil.
func (e Errors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
