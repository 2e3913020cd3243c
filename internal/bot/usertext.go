package bot

import (
	apperrors "weightmate/internal/errors"
)

// userText maps a typed error to the corrective text shown to the user. This
// is the only place internal errors become message text; everything below
// works with the typed taxonomy.
func userText(err error) string {
	switch apperrors.CodeOf(err) {
	case "INVALID_DATE":
		return "日付は YYYY-MM-DD 形式で入力してください。"
	case "INVALID_WEIGHT":
		return "体重は正の数値で入力してください。（例：体重 65.5）"
	case "UNKNOWN_MODE":
		return "モードは「親モード」か「筋トレモード」を指定してください。"
	case "BAD_USAGE":
		return "コマンドの形式が正しくありません。「ヘルプ」と送ってください。"
	case "NOT_REGISTERED":
		return "登録されていません。まず「登録 ユーザー名 モード」で登録してください。"
	case "ALREADY_REGISTERED":
		return "すでに登録済みです。"
	case "NO_COLUMNS":
		return "空き列がありません。管理者に連絡してください。"
	case "NO_OBSERVATIONS":
		return "直近1か月の体重データが見つかりません。"
	}
	return "エラーが発生しました。時間をおいて再度お試しください。"
}
