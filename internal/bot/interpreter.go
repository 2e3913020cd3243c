package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"weightmate/internal/domain"
	apperrors "weightmate/internal/errors"
	"weightmate/internal/logger"
)

// Event is one inbound text message, already decoded by the gateway.
type Event struct {
	UserID     string
	ReplyToken string
	Text       string
}

// Messenger is the outbound transport port. Reply* must be answered within
// the platform's reply-token window; Push* has no such budget.
type Messenger interface {
	ReplyText(ctx context.Context, replyToken, text string) error
	ReplyImage(ctx context.Context, replyToken, imageURL string) error
	PushText(ctx context.Context, to, text string) error
	PushImage(ctx context.Context, to, imageURL string) error
}

const chartWindowDays = 30

const helpText = `こんにちは！
■コマンド一覧
体重 65.5
体重 2025-07-13 65.5
登録 ユーザー名 モード
リセット
グラフ送信
グラフ ユーザー名
（help / weight / register / reset / chart も使えます）`

const unknownText = "コマンドが正しくありません。「ヘルプ」と送ってください。"

// Interpreter parses command text and dispatches to the registry, the ledger
// and the chart renderer. Every downstream error is converted to user text
// here; nothing below the transport ever sees an unconverted failure.
type Interpreter struct {
	registry  domain.IdentityRegistry
	ledger    domain.WeightLedger
	charts    domain.ChartRenderer
	messenger Messenger
	baseURL   string
}

func NewInterpreter(registry domain.IdentityRegistry, ledger domain.WeightLedger, charts domain.ChartRenderer, messenger Messenger, baseURL string) *Interpreter {
	return &Interpreter{
		registry:  registry,
		ledger:    ledger,
		charts:    charts,
		messenger: messenger,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// HandleText processes one message and sends the reply. The returned error
// is a transport failure only.
func (i *Interpreter) HandleText(ctx context.Context, ev Event) error {
	parts := strings.Fields(ev.Text)
	if len(parts) == 0 {
		return i.messenger.ReplyText(ctx, ev.ReplyToken, unknownText)
	}

	reply, err := i.dispatch(ctx, ev, parts)
	if err != nil {
		logger.Error("command failed",
			append([]any{"user_id", ev.UserID, "command", parts[0]}, logFields(err)...)...)
		reply = userText(err)
	}
	if reply == "" {
		return nil
	}
	return i.messenger.ReplyText(ctx, ev.ReplyToken, reply)
}

// dispatch selects the intent by the first token, then by argument count.
// An empty reply with nil error means the branch already answered.
func (i *Interpreter) dispatch(ctx context.Context, ev Event, parts []string) (string, error) {
	head := parts[0]
	switch {
	case head == "ヘルプ" || strings.EqualFold(head, "help"):
		return helpText, nil

	case head == "登録" || head == "register":
		if len(parts) != 3 {
			return "", apperrors.ErrBadUsage
		}
		return i.register(ctx, ev, parts[1], parts[2])

	case head == "リセット" || head == "reset":
		if len(parts) != 1 {
			return "", apperrors.ErrBadUsage
		}
		if _, err := i.registry.Reset(ctx, ev.UserID); err != nil {
			return "", err
		}
		return "登録をリセットしました。", nil

	case head == "体重" || head == "weight":
		switch len(parts) {
		case 2:
			return i.recordWeight(ctx, ev, "", parts[1])
		case 3:
			return i.recordWeight(ctx, ev, parts[1], parts[2])
		default:
			return "", apperrors.ErrBadUsage
		}

	case head == "グラフ送信" || (head == "chart" && len(parts) == 1):
		if len(parts) != 1 {
			return "", apperrors.ErrBadUsage
		}
		return i.chartSelf(ctx, ev)

	case head == "グラフ" || head == "chart":
		if len(parts) != 2 {
			return "", apperrors.ErrBadUsage
		}
		return i.chartFor(ctx, ev, parts[1])
	}
	return unknownText, nil
}

func (i *Interpreter) register(ctx context.Context, ev Event, username, modeLabel string) (string, error) {
	mode, ok := domain.ParseMode(modeLabel)
	if !ok {
		return "", apperrors.ErrUnknownMode
	}
	if _, err := i.registry.Register(ctx, username, mode, ev.UserID); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s さんを登録しました！", username), nil
}

func (i *Interpreter) recordWeight(ctx context.Context, ev Event, date, weightArg string) (string, error) {
	user, err := i.caller(ctx, ev.UserID)
	if err != nil {
		return "", err
	}
	weight, err := strconv.ParseFloat(weightArg, 64)
	if err != nil {
		return "", apperrors.ErrInvalidWeight
	}
	day, err := i.ledger.Record(ctx, user, date, weight)
	if err != nil {
		return "", err
	}
	if date == "" {
		return fmt.Sprintf("%s さんの体重 %skg を記録しました！", user.Username, weightArg), nil
	}
	return fmt.Sprintf("%s さんの体重 %skg（%s）を記録しました！", user.Username, weightArg, day.Format("2006-01-02")), nil
}

// chartSelf acknowledges immediately and renders+pushes from a goroutine:
// rendering plus the image round trip does not fit the reply-latency budget.
func (i *Interpreter) chartSelf(ctx context.Context, ev Event) (string, error) {
	user, err := i.caller(ctx, ev.UserID)
	if err != nil {
		return "", err
	}
	observations, err := i.ledger.QueryRecent(ctx, user.Username, chartWindowDays)
	if err != nil {
		return "", err
	}
	if len(observations) == 0 {
		return "", apperrors.ErrNoObservations
	}

	go i.renderAndPush(user, observations)
	return "グラフを作成しています。しばらくお待ちください。", nil
}

func (i *Interpreter) renderAndPush(user *domain.UserRecord, observations []domain.Observation) {
	ctx := context.Background()
	filename, err := i.charts.RenderTrend(ctx, user.Username, observations)
	if err != nil {
		logger.Error("chart rendering failed", append([]any{"username", user.Username}, logFields(err)...)...)
		if err := i.messenger.PushText(ctx, user.ExternalID, userText(err)); err != nil {
			logger.Error("chart failure push failed", "error", err)
		}
		return
	}
	if err := i.messenger.PushImage(ctx, user.ExternalID, i.imageURL(filename)); err != nil {
		logger.Error("chart push failed", "username", user.Username, "error", err)
	}
}

func (i *Interpreter) chartFor(ctx context.Context, ev Event, username string) (string, error) {
	record, err := i.registry.ResolveByName(ctx, username)
	if err != nil {
		return "", err
	}
	if record == nil {
		return fmt.Sprintf("%s さんは未登録です。", username), nil
	}
	observations, err := i.ledger.QueryRecent(ctx, record.Username, chartWindowDays)
	if err != nil {
		return "", err
	}
	if len(observations) == 0 {
		return "", apperrors.ErrNoObservations
	}
	filename, err := i.charts.RenderTrend(ctx, record.Username, observations)
	if err != nil {
		return "", err
	}
	if err := i.messenger.ReplyImage(ctx, ev.ReplyToken, i.imageURL(filename)); err != nil {
		return "", err
	}
	return "", nil
}

// caller resolves the sending user, turning absence into a typed error.
func (i *Interpreter) caller(ctx context.Context, externalID string) (*domain.UserRecord, error) {
	record, err := i.registry.ResolveByID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.ErrNotRegistered
	}
	return record, nil
}

func (i *Interpreter) imageURL(filename string) string {
	return i.baseURL + "/static/graphs/" + filename
}

func logFields(err error) []any {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.LogFields()
	}
	return []any{"error", err.Error()}
}
