package diagnosis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bodycheckai/bodycheck/internal/analyzer"
)

func TestReport_IntegerScores(t *testing.T) {
	t.Parallel()

	var result analyzer.Result
	err := json.Unmarshal([]byte(`{"姿勢スコア":7,"ボディバランススコア":8,"筋肉脂肪スコア":6,"ファッション映えスコア":9,"全体印象スコア":7}`), &result)
	require.NoError(t, err)

	want := "■ 姿勢：7 / 10\n" +
		"■ ボディバランス：8 / 10\n" +
		"■ 筋肉・脂肪のつき方：6 / 10\n" +
		"■ ファッション映え度：9 / 10\n" +
		"■ 全体印象：7 / 10\n" +
		"\n" +
		"✨改善アドバイス：姿勢を整えれば印象UP！"
	require.Equal(t, want, Report(result))
}

func TestReport_FractionalScoresKeptVerbatim(t *testing.T) {
	t.Parallel()

	var result analyzer.Result
	err := json.Unmarshal([]byte(`{"姿勢スコア":7.5,"ボディバランススコア":8.0,"筋肉脂肪スコア":6.1,"ファッション映えスコア":9,"全体印象スコア":10}`), &result)
	require.NoError(t, err)

	report := Report(result)
	require.Contains(t, report, "■ 姿勢：7.5 / 10")
	// 8.0 is rendered exactly as the analyzer sent it, not normalized to 8.
	require.Contains(t, report, "■ ボディバランス：8.0 / 10")
	require.Contains(t, report, "■ 全体印象：10 / 10")
}

func TestFixedMessages(t *testing.T) {
	t.Parallel()

	require.Equal(t, "画像を送信してください📷", PromptMessage)
	require.Equal(t, "診断に失敗しました。画像が正しく読み込めませんでした。", FailureMessage)
}
