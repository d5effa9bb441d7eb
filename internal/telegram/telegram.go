package telegram

import (
	"net/http"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

type Settings struct {
	Token  string
	ChatID string
	Client *http.Client
}

// StatusFunc /status 命令的回复内容
type StatusFunc func() string

type Telegram struct {
	logger   *zap.Logger
	settings Settings
	client   *tele.Bot
	status   StatusFunc
}

type Option func(telegram *Telegram)

func WithStatus(fn StatusFunc) Option {
	return func(t *Telegram) {
		t.status = fn
	}
}

func NewTelegram(logger *zap.Logger, settings Settings, options ...Option) (*Telegram, error) {
	poller := &tele.LongPoller{Timeout: 10 * time.Second}

	// 只响应配置的会话
	chatPoller := tele.NewMiddlewarePoller(poller, func(u *tele.Update) bool {
		if settings.ChatID == "" || u.Message == nil {
			return true
		}
		return u.Message.Chat.ID == cast.ToInt64(settings.ChatID)
	})

	client, err := tele.NewBot(tele.Settings{
		ParseMode: tele.ModeMarkdownV2,
		Token:     settings.Token,
		Poller:    chatPoller,
		Client:    settings.Client,
	})
	if err != nil {
		return nil, err
	}

	client.Use(middleware.AutoRespond())

	err = client.SetCommands([]tele.Command{
		{Text: "/start", Description: "启动机器人"},
		{Text: "/status", Description: "查看组合与持仓状态"},
	})
	if err != nil {
		return nil, err
	}

	bot := &Telegram{
		logger:   logger,
		settings: settings,
		client:   client,
	}

	for _, option := range options {
		option(bot)
	}

	client.Handle("/start", func(c tele.Context) error {
		return c.Send(escapeMarkdownV2("LeverQuest alerts are on. Send /status for the current battle report."))
	})
	client.Handle("/status", func(c tele.Context) error {
		if bot.status == nil {
			return c.Send(escapeMarkdownV2("status unavailable"))
		}
		return c.Send(escapeMarkdownV2(bot.status()))
	})

	return bot, nil
}

func (r *Telegram) Start() {
	go r.client.Start()
}

func (r *Telegram) Stop() {
	r.client.Stop()
}

// Notify 发送到配置的会话，msg 为纯文本，会被转义
func (r *Telegram) Notify(msg string) error {
	return r.NotifyChat(r.settings.ChatID, msg)
}

func (r *Telegram) NotifyChat(chatId, msg string) error {
	_chatId := cast.ToInt64(chatId)
	_, err := r.client.Send(tele.ChatID(_chatId), escapeMarkdownV2(msg), &tele.SendOptions{ParseMode: tele.ModeMarkdownV2})
	if err != nil {
		r.logger.Warn("telegram send failed", zap.String("chat_id", chatId), zap.Error(err))
	}
	return err
}
