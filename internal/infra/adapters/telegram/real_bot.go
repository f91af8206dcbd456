package telegram

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-scraper-bot/internal/config"
	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/infra/logging"
)

var _ adapter.Bot = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter uses tgbotapi to poll updates and delegates them to an InboundHandler.
type RealTelegramBotAdapter struct {
	bot *tgbotapi.BotAPI
	cfg *config.BotConfig
	log *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("telegram bot authorized")

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		log:           logger,
		updateWorkers: workers,
	}, nil
}

// StartPolling blocks until ctx is done. Updates are sharded onto workers by chat id
// so messages of one chat are handled in arrival order.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, h adapter.InboundHandler) error {
	if h == nil {
		return errors.New("inbound handler is nil")
	}
	if _, err := r.bot.Request(tgbotapi.NewSetMyCommands(menuCommands()...)); err != nil {
		r.log.Warn().Err(err).Msg("failed to set menu commands")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	shards := make([]chan tgbotapi.Update, r.updateWorkers)
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, 100)
		wg.Add(1)
		go func(id int, in <-chan tgbotapi.Update) {
			defer wg.Done()
			for up := range in {
				if ctx.Err() != nil {
					continue
				}
				r.dispatch(ctx, id, h, up)
			}
		}(i, shards[i])
	}

	routeUpdates(ctx, updates, shards)
	r.bot.StopReceivingUpdates()
	for _, ch := range shards {
		close(ch)
	}
	wg.Wait()
	return ctx.Err()
}

// routeUpdates fans message updates out to shards by chat id until ctx ends.
// A full shard never holds up shutdown.
func routeUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel, shards []chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			msg := up.Message
			if msg == nil || msg.Chat == nil {
				continue
			}
			select {
			case shards[shardFor(msg.Chat.ID, len(shards))] <- up:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, worker int, h adapter.InboundHandler, up tgbotapi.Update) {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	log := logging.With(ctx, r.log)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Int("worker", worker).Msg("panic while handling update")
		}
	}()

	msg, ok := toMessage(up)
	if !ok {
		return
	}
	if err := h.HandleMessage(ctx, msg); err != nil {
		log.Debug().Err(err).Int64("session_id", msg.SessionID).Msg("message rejected")
	}
}

// toMessage converts a text update into a model.Message.
func toMessage(up tgbotapi.Update) (model.Message, bool) {
	m := up.Message
	if m == nil || m.Chat == nil || m.Text == "" {
		return model.Message{}, false
	}
	var first string
	if m.From != nil {
		first = m.From.FirstName
	}
	return model.Message{
		SessionID: m.Chat.ID,
		FirstName: first,
		Command:   ParseCommand(m.Text),
	}, true
}

func shardFor(chatID int64, n int) int {
	if n <= 1 {
		return 0
	}
	s := chatID % int64(n)
	if s < 0 {
		s = -s
	}
	return int(s)
}

func (r *RealTelegramBotAdapter) SendText(ctx context.Context, chatID int64, text string, opts adapter.SendOptions) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if opts.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
	}
	if kb := replyKeyboard(opts.Keyboard); kb != nil {
		msg.ReplyMarkup = kb
	}
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendTyping(ctx context.Context, chatID int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := r.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}
