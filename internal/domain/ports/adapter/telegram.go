// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"telegram-scraper-bot/internal/domain/model"
)

// Keyboard selects one of the reply keyboards the transport knows how to render.
type Keyboard string

const (
	KeyboardNone      Keyboard = ""
	KeyboardStart     Keyboard = "start"
	KeyboardResources Keyboard = "resources"
)

type SendOptions struct {
	HTML     bool
	Keyboard Keyboard
}

// Messenger is the outbound side of the chat transport.
// Calls are fire-and-forget for the core: failures are logged, never retried.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) error
	SendTyping(ctx context.Context, chatID int64) error
}

// Translator renders user facing texts by key.
type Translator interface {
	T(key string, args ...interface{}) string
}

// InboundHandler consumes messages parsed by the transport.
type InboundHandler interface {
	HandleMessage(ctx context.Context, msg model.Message) error
}

// Bot is a full chat transport: it sends messages and feeds inbound ones to a handler.
type Bot interface {
	Messenger
	StartPolling(ctx context.Context, h InboundHandler) error
}
