package bot

import (
	"context"
	"log/slog"

	coreconfig "github.com/m3rciful/todobot/core/config"
	"github.com/m3rciful/todobot/core/logger"
	coretelegram "github.com/m3rciful/todobot/core/telegram"
	"github.com/m3rciful/todobot/core/telegram/commands"
	"github.com/m3rciful/todobot/core/telegram/router"
)

// CoreConfig satisfies the runner's config carrier.
func (a *App) CoreConfig() *coreconfig.Config { return a.cfg.CoreConfig() }

// Registry lists the dispatcher commands for the menu and command routes.
func (a *App) Registry() *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	for _, c := range a.dispatcher.Commands() {
		reg.RegisterCommand("/"+c.Name, commands.Command{
			Handler:     a.handle,
			Description: c.Description,
		})
	}
	reg.SetTextFallback(a.handle)
	reg.SetOtherHandler(a.handle)
	return reg
}

// TelegramRunOptions builds everything RunTelegram needs.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := a.Registry()
	routes := append(router.CommandRoutes(reg), router.MessageRoutes(reg)...)
	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), slowDown),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ coretelegram.Runtime) error {
	if a.sweeper != nil {
		a.sweeper.Start()
	}
	logger.Info(ctx, "app", "start",
		slog.String("status", "ok"),
		slog.String("backend", a.cfg.Sessions.Backend),
	)
	return nil
}

func (a *App) onStop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.sweeper != nil {
		a.sweeper.Stop(ctx)
	}
	err := a.Close()
	status := "ok"
	if err != nil {
		status = "fail"
	}
	logger.Info(ctx, "app", "stop",
		slog.String("status", status),
	)
	return err
}
