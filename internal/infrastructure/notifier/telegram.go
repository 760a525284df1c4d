package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/httpx"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

const (
	defaultRatePerSecond = 25
	sendTimeout          = 10 * time.Second
)

// TelegramBot отправляет уведомления о лотах через Bot API. Отправка
// ограничена по частоте и защищена автоматом размыкания.
type TelegramBot struct {
	bot     *telego.Bot
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*telego.Message]
}

type TelegramOption func(*telegramOptions)

type telegramOptions struct {
	apiServer     string
	ratePerSecond float64
	httpClient    *http.Client
}

// WithAPIServer задаёт адрес Bot API.
func WithAPIServer(url string) TelegramOption {
	return func(o *telegramOptions) { o.apiServer = url }
}

// WithRate задаёт допустимое число отправок в секунду.
func WithRate(perSecond float64) TelegramOption {
	return func(o *telegramOptions) { o.ratePerSecond = perSecond }
}

func WithHTTPClient(client *http.Client) TelegramOption {
	return func(o *telegramOptions) { o.httpClient = client }
}

func NewTelegramBot(token string, opts ...TelegramOption) (*TelegramBot, error) {
	o := telegramOptions{ratePerSecond: defaultRatePerSecond}
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient == nil {
		o.httpClient = &http.Client{
			Timeout: sendTimeout,
			Transport: httpx.NewLoggingRoundTripper(
				http.DefaultTransport,
				httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
				httpx.WithLogFieldMaxLen(4096),
			),
		}
	}

	botOpts := []telego.BotOption{
		telego.WithHTTPClient(o.httpClient),
		telego.WithDiscardLogger(),
	}
	if o.apiServer != "" {
		botOpts = append(botOpts, telego.WithAPIServer(o.apiServer))
	}

	bot, err := telego.NewBot(token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[*telego.Message](gobreaker.Settings{
		Name:        "telegram",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &TelegramBot{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(o.ratePerSecond), 1),
		breaker: breaker,
	}, nil
}

// Send реализует alert.Sink.
func (b *TelegramBot) Send(ctx context.Context, chatID int64, event entity.CreatedListing) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	msg := tu.Message(tu.ID(chatID), formatListing(event))

	_, err := b.breaker.Execute(func() (*telego.Message, error) {
		return b.bot.SendMessage(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// SendText отправляет простое текстовое сообщение.
func (b *TelegramBot) SendText(ctx context.Context, chatID int64, text string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	_, err := b.breaker.Execute(func() (*telego.Message, error) {
		return b.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	})
	return err
}
