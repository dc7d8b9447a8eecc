package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/pkg/clients/whatsapp"
)

// ErrIncompleteSettings is returned by a channel whose settings are missing a field.
var ErrIncompleteSettings = errors.New("channel settings are incomplete")

// LogChannel writes notifications to the structured log. It stands in for
// desktop pop-ups on a headless host.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel builds a log channel.
func NewLogChannel(logger *zap.Logger) *LogChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "desktop" }

func (c *LogChannel) Notify(_ context.Context, n Notification) error {
	c.logger.Info(n.Title, zap.String("colony", n.Colony), zap.String("message", n.Body))
	return nil
}

// EmailChannel sends plain-text mail over SMTP. Port 465 uses implicit TLS,
// any other port requires STARTTLS.
type EmailChannel struct {
	Server    string
	Port      int
	Sender    string
	Password  string
	Recipient string
}

// NewEmailChannel reads the mail fields from settings.
func NewEmailChannel(s models.Settings) *EmailChannel {
	return &EmailChannel{
		Server:    s.SMTPServer,
		Port:      s.SMTPPort,
		Sender:    s.EmailSender,
		Password:  s.EmailPassword,
		Recipient: s.EmailRecipient,
	}
}

func (c *EmailChannel) Name() string { return "email" }

// Validate reports which required field is missing.
func (c *EmailChannel) Validate() error {
	switch {
	case c.Server == "":
		return fmt.Errorf("%w: smtp server", ErrIncompleteSettings)
	case c.Port <= 0:
		return fmt.Errorf("%w: smtp port", ErrIncompleteSettings)
	case c.Sender == "":
		return fmt.Errorf("%w: email sender", ErrIncompleteSettings)
	case c.Password == "":
		return fmt.Errorf("%w: email password", ErrIncompleteSettings)
	case c.Recipient == "":
		return fmt.Errorf("%w: email recipient", ErrIncompleteSettings)
	}
	return nil
}

func (c *EmailChannel) Notify(ctx context.Context, n Notification) error {
	if err := c.Validate(); err != nil {
		return err
	}

	msg, err := c.message(n)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.Sender),
		mail.WithPassword(c.Password),
		mail.WithTimeout(15 * time.Second),
	}
	if c.Port == 465 {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	opts = append(opts, mail.WithPort(c.Port))

	client, err := mail.NewClient(c.Server, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail via %s:%d: %w", c.Server, c.Port, err)
	}
	return nil
}

// message builds the mail. Header values are encoded by the library, so a
// subject carrying line breaks cannot add headers.
func (c *EmailChannel) message(n Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(c.Sender); err != nil {
		return nil, fmt.Errorf("%w: email sender %q: %v", ErrIncompleteSettings, c.Sender, err)
	}
	if err := msg.To(c.Recipient); err != nil {
		return nil, fmt.Errorf("%w: email recipient %q: %v", ErrIncompleteSettings, c.Recipient, err)
	}
	msg.Subject(n.Subject)
	msg.SetBodyString(mail.TypeTextPlain, n.EmailBody)
	return msg, nil
}

// WhatsAppChannel sends the notification text to one WhatsApp number.
type WhatsAppChannel struct {
	sender    whatsapp.Sender
	recipient string
}

// NewWhatsAppChannel builds a WhatsApp channel.
func NewWhatsAppChannel(sender whatsapp.Sender, recipient string) *WhatsAppChannel {
	return &WhatsAppChannel{sender: sender, recipient: recipient}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

func (c *WhatsAppChannel) Notify(ctx context.Context, n Notification) error {
	if c.sender == nil {
		return fmt.Errorf("%w: whatsapp api credentials", ErrIncompleteSettings)
	}
	if c.recipient == "" {
		return fmt.Errorf("%w: whatsapp recipient", ErrIncompleteSettings)
	}
	_, err := c.sender.SendText(ctx, c.recipient, n.Text())
	return err
}

// TelegramChannel sends the notification through a Telegram bot. The bot
// client is created on first use because creating it calls the API.
type TelegramChannel struct {
	token       string
	endpoint    string
	chatID      int64
	httpTimeout time.Duration

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegramChannel builds a Telegram channel. An empty endpoint selects the
// public Bot API.
func NewTelegramChannel(token, endpoint string, chatID int64) *TelegramChannel {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &TelegramChannel{token: token, endpoint: endpoint, chatID: chatID, httpTimeout: DefaultChannelTimeout}
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) client() (*tgbotapi.BotAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bot != nil {
		return c.bot, nil
	}
	// The bot API takes no context; the client timeout bounds every call.
	httpClient := &http.Client{Timeout: c.httpTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(c.token, c.endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	c.bot = bot
	return bot, nil
}

func (c *TelegramChannel) Notify(ctx context.Context, n Notification) error {
	if c.token == "" {
		return fmt.Errorf("%w: telegram bot token", ErrIncompleteSettings)
	}
	if c.chatID == 0 {
		return fmt.Errorf("%w: telegram chat id", ErrIncompleteSettings)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bot, err := c.client()
	if err != nil {
		return err
	}
	if _, err := bot.Send(tgbotapi.NewMessage(c.chatID, n.Text())); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// Deps carries the process-level collaborators channels need besides settings.
type Deps struct {
	Logger           *zap.Logger
	WhatsApp         whatsapp.Sender
	TelegramToken    string
	TelegramEndpoint string
}

// BuildChannels composes the channel set enabled in settings. The master
// toggle off yields no channel at all.
func BuildChannels(s models.Settings, deps Deps) []Channel {
	if !s.Notifications {
		return nil
	}

	var channels []Channel
	if s.NotificationsDesktop {
		channels = append(channels, NewLogChannel(deps.Logger))
	}
	if s.NotificationsEmail {
		channels = append(channels, NewEmailChannel(s))
	}
	if s.NotificationsWhatsApp {
		channels = append(channels, NewWhatsAppChannel(deps.WhatsApp, s.WhatsAppRecipient))
	}
	if s.NotificationsTelegram {
		channels = append(channels, NewTelegramChannel(deps.TelegramToken, deps.TelegramEndpoint, s.TelegramChatID))
	}
	return channels
}
