package telegram

import (
	"net"
	"net/http"
	"strconv"
	"time"

	coreconfig "github.com/m3rciful/horoscopebot/core/config"
	"github.com/m3rciful/horoscopebot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

// DefaultLongPollTimeout applies when telegram.longpoll_timeout_seconds is 0.
const DefaultLongPollTimeout = 10 * time.Second

// LongPollTimeout is the configured long poll timeout or the default.
func LongPollTimeout(cfg coreconfig.TelegramConfig) time.Duration {
	if cfg.LongPollTimeoutSeconds > 0 {
		return time.Duration(cfg.LongPollTimeoutSeconds) * time.Second
	}
	return DefaultLongPollTimeout
}

// NewPoller returns a webhook listener for run_mode webhook and a long
// poller otherwise. cfg must already be normalized.
func NewPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:   net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{Timeout: LongPollTimeout(cfg.Telegram)}
}

// NewAPIClient returns the client telebot uses for Bot API calls. Its
// timeout outlasts a long poll request.
func NewAPIClient(longPoll time.Duration) *http.Client {
	return netutil.NewHTTPClient(netutil.ClientOptions{
		Timeout:       longPoll + 20*time.Second,
		RetryAttempts: 3,
		RetryBackoff:  2 * time.Second,
	})
}
