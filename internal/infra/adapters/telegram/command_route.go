package telegram

import (
	"strings"

	"telegram-scraper-bot/internal/domain/model"
)

// Reply keyboard labels. Pressing a button sends its label as plain text.
const (
	LabelHelp     = "ℹ️ Help"
	LabelShops    = "🛒 Shops"
	LabelDigikala = "🔎 Digikala"
	LabelEbay     = "🔎 eBay"
	LabelGlobal   = "🔎 Global (link + name)"
	LabelCancel   = "❌ Cancel Operation"
)

// commandRoutes maps slash commands (without the slash) onto commands.
var commandRoutes = map[string]model.Command{
	"start":    {Kind: model.CommandStart},
	"help":     {Kind: model.CommandHelp},
	"shop":     {Kind: model.CommandListResources},
	"shops":    {Kind: model.CommandListResources},
	"cancel":   {Kind: model.CommandCancel},
	"digikala": {Kind: model.CommandSelectResource, Resource: model.ResourceDigikala},
	"ebay":     {Kind: model.CommandSelectResource, Resource: model.ResourceEbay},
	"global":   {Kind: model.CommandSelectResource, Resource: model.ResourceGlobal},
}

var labelRoutes = map[string]model.Command{
	LabelHelp:     {Kind: model.CommandHelp},
	LabelShops:    {Kind: model.CommandListResources},
	LabelCancel:   {Kind: model.CommandCancel},
	LabelDigikala: {Kind: model.CommandSelectResource, Resource: model.ResourceDigikala},
	LabelEbay:     {Kind: model.CommandSelectResource, Resource: model.ResourceEbay},
	LabelGlobal:   {Kind: model.CommandSelectResource, Resource: model.ResourceGlobal},
}

// ParseCommand maps raw message text onto a transport-agnostic command.
// Anything unrecognised, unknown slash commands included, is free text.
func ParseCommand(text string) model.Command {
	text = strings.TrimSpace(text)
	if cmd, ok := labelRoutes[text]; ok {
		return cmd
	}
	if strings.HasPrefix(text, "/") {
		name := strings.Fields(text[1:])
		if len(name) > 0 {
			key := strings.ToLower(name[0])
			// "/help@ScraperShopBot" in group chats
			if i := strings.IndexByte(key, '@'); i >= 0 {
				key = key[:i]
			}
			if cmd, ok := commandRoutes[key]; ok {
				return cmd
			}
		}
	}
	return model.Command{Kind: model.CommandFreeText, Text: text}
}
