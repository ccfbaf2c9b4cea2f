package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/todobot/core/telegram"
)

// otherEndpoints are message kinds the bot cannot read but must answer.
var otherEndpoints = []string{
	tele.OnPhoto,
	tele.OnDocument,
	tele.OnSticker,
	tele.OnVoice,
	tele.OnVideo,
	tele.OnVideoNote,
	tele.OnAudio,
	tele.OnAnimation,
	tele.OnLocation,
	tele.OnContact,
}

// MessageRoutes routes free text, unknown commands included, to the
// registry text fallback and non-text messages to its other handler.
func MessageRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	text := func(c tele.Context) error {
		if fb := reg.TextFallback(); fb != nil {
			return handleWithSummary(c, "text", fb)
		}
		logHandlerSummary(c, "text", time.Now(), nil)
		return nil
	}
	routes := []tg.Route{{Endpoint: tele.OnText, Handler: text}}

	if other := reg.OtherHandler(); other != nil {
		h := func(c tele.Context) error {
			return handleWithSummary(c, "other", other)
		}
		for _, ep := range otherEndpoints {
			routes = append(routes, tg.Route{Endpoint: ep, Handler: h})
		}
	}
	return routes
}
