package router

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/todobot/core/logger"
	tg "github.com/m3rciful/todobot/core/telegram"
)

// CommandRoutes binds every registered command and its aliases.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	var routes []tg.Route
	for _, name := range reg.Names() {
		key, cmd, _ := reg.LookupCommand(name)
		handlerName := normalizeHandlerName(key)
		h := cmd.Handler
		wrapped := func(c tele.Context) error {
			return handleWithSummary(c, handlerName, h)
		}
		routes = append(routes, tg.Route{Endpoint: key, Handler: wrapped})
		for _, alias := range cmd.Aliases {
			routes = append(routes, tg.Route{Endpoint: "/" + normalizeHandlerName(alias), Handler: wrapped})
		}
	}
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "tg.wire",
		slog.String("status", "ok"),
		slog.Int("commands", len(reg.Names())),
		slog.Int("routes", len(routes)),
	)
	return routes
}
