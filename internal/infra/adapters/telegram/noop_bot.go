package telegram

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/infra/logging"
)

var _ adapter.Bot = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.Bot for local/dev testing.
// It logs outbound messages instead of sending them and reads inbound lines from in,
// each one sent as chatID.
type NoopBotAdapter struct {
	log    *zerolog.Logger
	in     io.Reader
	chatID int64
}

// NewNoopBotAdapter constructs the noop adapter. A nil in disables the console.
func NewNoopBotAdapter(logger *zerolog.Logger, in io.Reader, chatID int64) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger, in: in, chatID: chatID}
}

func (b *NoopBotAdapter) SendText(ctx context.Context, chatID int64, text string, opts adapter.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().
		Int64("chat_id", chatID).
		Bool("html", opts.HTML).
		Str("keyboard", string(opts.Keyboard)).
		Msg("[noop-telegram] " + text)
	return nil
}

func (b *NoopBotAdapter) SendTyping(ctx context.Context, chatID int64) error {
	b.log.Debug().Int64("chat_id", chatID).Msg("[noop-telegram] typing")
	return ctx.Err()
}

// StartPolling feeds console lines to h until EOF or ctx is done.
func (b *NoopBotAdapter) StartPolling(ctx context.Context, h adapter.InboundHandler) error {
	if b.in == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(b.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			lctx := logging.WithTraceID(ctx, uuid.NewString())
			msg := model.Message{SessionID: b.chatID, FirstName: "dev", Command: ParseCommand(line)}
			if err := h.HandleMessage(lctx, msg); err != nil {
				b.log.Debug().Err(err).Msg("[noop-telegram] message rejected")
			}
		}
	}
}
