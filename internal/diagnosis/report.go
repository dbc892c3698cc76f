package diagnosis

import (
	"fmt"

	"github.com/bodycheckai/bodycheck/internal/analyzer"
)

// Fixed reply texts. These are user-facing contract strings; do not reword.
const (
	// PromptMessage is sent for any event that is not an image message.
	PromptMessage = "画像を送信してください📷"
	// FailureMessage is sent when any step of the diagnosis pipeline fails.
	FailureMessage = "診断に失敗しました。画像が正しく読み込めませんでした。"
)

const reportTemplate = "■ 姿勢：%s / 10\n" +
	"■ ボディバランス：%s / 10\n" +
	"■ 筋肉・脂肪のつき方：%s / 10\n" +
	"■ ファッション映え度：%s / 10\n" +
	"■ 全体印象：%s / 10\n" +
	"\n" +
	"✨改善アドバイス：姿勢を整えれば印象UP！"

// Report renders the diagnosis reply from an analysis result. Scores are
// substituted exactly as the analyzer returned them.
func Report(r analyzer.Result) string {
	return fmt.Sprintf(reportTemplate,
		r.Posture.String(),
		r.Balance.String(),
		r.MuscleFat.String(),
		r.Fashion.String(),
		r.Overall.String(),
	)
}
