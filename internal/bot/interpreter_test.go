package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weightmate/internal/domain"
	"weightmate/internal/memory"
	"weightmate/internal/services"
)

type fakeMessenger struct {
	mu           sync.Mutex
	replies      []string
	replyImages  []string
	pushedTexts  []string
	pushedImages []string
}

func (m *fakeMessenger) ReplyText(ctx context.Context, replyToken, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, text)
	return nil
}

func (m *fakeMessenger) ReplyImage(ctx context.Context, replyToken, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replyImages = append(m.replyImages, imageURL)
	return nil
}

func (m *fakeMessenger) PushText(ctx context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushedTexts = append(m.pushedTexts, text)
	return nil
}

func (m *fakeMessenger) PushImage(ctx context.Context, to, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushedImages = append(m.pushedImages, imageURL)
	return nil
}

func (m *fakeMessenger) lastReply() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.replies) == 0 {
		return ""
	}
	return m.replies[len(m.replies)-1]
}

func (m *fakeMessenger) pushedImageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushedImages)
}

type fakeRenderer struct{}

func (fakeRenderer) RenderTrend(ctx context.Context, username string, observations []domain.Observation) (string, error) {
	return username + "_weight_1month.png", nil
}

func newTestInterpreter(t *testing.T) (*Interpreter, *fakeMessenger, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.Seed("Weights", [][]string{{"ユーザー名", "日付", "体重", "モード"}})
	messenger := &fakeMessenger{}
	registry := services.NewRegistryService(store)
	ledger := services.NewLedgerService(store)
	interp := NewInterpreter(registry, ledger, fakeRenderer{}, messenger, "https://example.com/")
	return interp, messenger, store
}

func handle(t *testing.T, interp *Interpreter, userID, text string) {
	t.Helper()
	err := interp.HandleText(context.Background(), Event{UserID: userID, ReplyToken: "rt", Text: text})
	require.NoError(t, err)
}

func TestHelp(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)

	handle(t, interp, "U1", "ヘルプ")
	assert.Equal(t, helpText, messenger.lastReply())

	handle(t, interp, "U1", "HELP")
	assert.Equal(t, helpText, messenger.lastReply())
}

func TestUnknownCommand(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)

	handle(t, interp, "U1", "こんにちは")
	assert.Equal(t, unknownText, messenger.lastReply())

	handle(t, interp, "U1", "   ")
	assert.Equal(t, unknownText, messenger.lastReply())
}

func TestRegisterFlow(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)

	handle(t, interp, "U1", "登録 たろう 筋トレモード")
	assert.Equal(t, "たろう さんを登録しました！", messenger.lastReply())

	handle(t, interp, "U1", "登録 たろう 筋トレモード")
	assert.Equal(t, "すでに登録済みです。", messenger.lastReply())
}

func TestRegisterValidation(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)

	handle(t, interp, "U1", "登録 たろう なにかモード")
	assert.Contains(t, messenger.lastReply(), "モードは")

	handle(t, interp, "U1", "登録 たろう")
	assert.Contains(t, messenger.lastReply(), "コマンドの形式")
}

func TestWeightFlow(t *testing.T) {
	interp, messenger, store := newTestInterpreter(t)
	handle(t, interp, "U1", "登録 たろう 筋トレモード")

	handle(t, interp, "U1", "体重 65.5")
	assert.Equal(t, "たろう さんの体重 65.5kg を記録しました！", messenger.lastReply())

	ledger := services.NewLedgerService(store)
	observations, err := ledger.QueryRecent(context.Background(), "たろう", 30)
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, 65.5, observations[0].Weight)
	assert.Equal(t, time.Now().Format("2006-01-02"), observations[0].Date.Format("2006-01-02"))
}

func TestWeightExplicitDate(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)
	handle(t, interp, "U1", "登録 たろう 筋トレモード")

	handle(t, interp, "U1", "weight 2025-07-13 66")
	assert.Equal(t, "たろう さんの体重 66kg（2025-07-13）を記録しました！", messenger.lastReply())
}

func TestWeightValidationLeavesStateUnchanged(t *testing.T) {
	interp, messenger, store := newTestInterpreter(t)
	handle(t, interp, "U1", "登録 たろう 筋トレモード")

	handle(t, interp, "U1", "体重 もりもり")
	assert.Contains(t, messenger.lastReply(), "体重は正の数値")

	// ParseFloat accepts these, so the ledger has to turn them away.
	handle(t, interp, "U1", "体重 NaN")
	assert.Contains(t, messenger.lastReply(), "体重は正の数値")
	handle(t, interp, "U1", "体重 Inf")
	assert.Contains(t, messenger.lastReply(), "体重は正の数値")

	rows, err := store.Get(context.Background(), "Weights!A2:D")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWeightRequiresRegistration(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)

	handle(t, interp, "U1", "体重 65.5")
	assert.Contains(t, messenger.lastReply(), "登録されていません")
}

func TestResetFlow(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)
	handle(t, interp, "U1", "登録 たろう 筋トレモード")

	handle(t, interp, "U1", "リセット")
	assert.Equal(t, "登録をリセットしました。", messenger.lastReply())

	handle(t, interp, "U1", "リセット")
	assert.Contains(t, messenger.lastReply(), "登録されていません")
}

func TestChartForNamedUser(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)
	handle(t, interp, "U1", "登録 たろう 筋トレモード")
	handle(t, interp, "U1", "体重 65.5")

	handle(t, interp, "U2", "グラフ たろう")
	require.Len(t, messenger.replyImages, 1)
	assert.Equal(t, "https://example.com/static/graphs/たろう_weight_1month.png", messenger.replyImages[0])
}

func TestChartForUnknownUser(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)

	handle(t, interp, "U1", "グラフ だれか")
	assert.Equal(t, "だれか さんは未登録です。", messenger.lastReply())
}

func TestChartSelfPushes(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)
	handle(t, interp, "U1", "登録 たろう 筋トレモード")
	handle(t, interp, "U1", "体重 65.5")

	handle(t, interp, "U1", "グラフ送信")
	assert.True(t, strings.Contains(messenger.lastReply(), "グラフを作成しています"))

	assert.Eventually(t, func() bool {
		return messenger.pushedImageCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChartSelfWithoutData(t *testing.T) {
	interp, messenger, _ := newTestInterpreter(t)
	handle(t, interp, "U1", "登録 たろう 筋トレモード")

	handle(t, interp, "U1", "chart")
	assert.Contains(t, messenger.lastReply(), "体重データが見つかりません")
}
