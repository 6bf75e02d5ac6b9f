// Package app is the composition root: it builds the registry, gate,
// wizard, menu and trackers out of configuration and exposes them as a
// runnable Telegram application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/gatebot/core/config"
	"github.com/m3rciful/gatebot/core/logger"
	tgcore "github.com/m3rciful/gatebot/core/telegram"
	tghelpers "github.com/m3rciful/gatebot/core/telegram/helpers"
	"github.com/m3rciful/gatebot/core/telegram/router"
	"github.com/m3rciful/gatebot/core/telegram/state"
	"github.com/m3rciful/gatebot/internal/access"
	"github.com/m3rciful/gatebot/internal/broadcast"
	"github.com/m3rciful/gatebot/internal/gate"
	"github.com/m3rciful/gatebot/internal/keepalive"
	"github.com/m3rciful/gatebot/internal/menu"
	"github.com/m3rciful/gatebot/internal/platform"
	"github.com/m3rciful/gatebot/internal/store"
	"github.com/m3rciful/gatebot/internal/wizard"
)

// App holds the assembled application.
type App struct {
	cfg      *coreconfig.Config
	registry *tgcore.Registry
	reg      *store.Store
	wiz      *wizard.Engine
	tracker  *gate.Tracker
	probe    *keepalive.Server
	api      *apiHolder
}

// Bootstrap initializes logging, opens the snapshot registry and wires
// every component. It fails fast on configuration or storage errors.
func Bootstrap(cfg *coreconfig.Config) (*App, error) {
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("app: logger init: %w", err)
	}

	reg, err := store.Open(cfg.Bot.DataFile, cfg.Bot.OwnerID, cfg.Bot.AdminIDs)
	if err != nil {
		return nil, fmt.Errorf("app: open registry: %w", err)
	}

	api := &apiHolder{}
	ev := access.NewEvaluator(reg)
	g := gate.New(api, ev, cfg.Bot.MandatoryChannelID)
	kicker := gate.NewKicker(api, ev, reg)
	tracker := gate.NewTracker(api, ev, reg, kicker, cfg.Bot.MandatoryChannelID, cfg.Bot.LogChannelID)
	caster := broadcast.New(api, reg)
	wiz := wizard.New(state.NewMemoryManager(), ev, reg, caster)

	m := menu.New(api, reg, ev, g, kicker, wiz, menu.Options{
		MandatoryChannelLink: cfg.Bot.MandatoryChannelLink,
		ContactAdminLink:     cfg.Bot.ContactLink,
	})

	registry := tgcore.NewRegistry()
	m.RegisterCommands(registry)
	m.Register(registry)

	return &App{
		cfg:      cfg,
		registry: registry,
		reg:      reg,
		wiz:      wiz,
		tracker:  tracker,
		probe:    keepalive.New(cfg.Bot.KeepalivePort),
		api:      api,
	}, nil
}

// TelegramRunOptions assembles routes, middlewares and lifecycle hooks for
// the shared bot runtime.
func (a *App) TelegramRunOptions() (tgcore.RunOptions, error) {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes,
		router.CallbackRoute(a.registry),
		router.TextRoute(wizardAdapter{eng: a.wiz}, a.registry, router.TextOptions{}),
		tgcore.Route{Endpoint: tele.OnChatMember, Handler: a.tracker.HandleChatMember},
		tgcore.Route{Endpoint: tele.OnMyChatMember, Handler: a.tracker.HandleMyChatMember},
	)

	return tgcore.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: tgcore.DefaultMiddlewares(a.cfg, a.reg.IsBlocked),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tgcore.Runtime) error {
			a.api.set(platform.NewTelebotAPI(rt.Bot))
			a.probe.Start(ctx)
			logger.Info(ctx, "app", "components.ready",
				slog.Int("free_channels", len(a.reg.FreeChannelIDs())),
				slog.Int("admins", len(a.reg.Admins())),
			)
			return nil
		},
	}, nil
}

// wizardAdapter binds the wizard engine to the text route.
type wizardAdapter struct {
	eng *wizard.Engine
}

func (w wizardAdapter) InProgress(userID int64) bool {
	return w.eng.InProgress(userID)
}

func (w wizardAdapter) HandleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := tghelpers.WithHandler(c, "wizard")
	w.eng.Consume(ctx, sender.ID, c.Text(), func(text string, asHTML bool) error {
		if asHTML {
			return tghelpers.SendHTML(c, text)
		}
		return tghelpers.SendText(c, text)
	})
	return nil
}

// apiHolder is a platform.API whose backing implementation is installed once
// the bot is built. Handlers never run before OnStart, so the nil window is
// unreachable in practice; calls during it fail cleanly anyway.
type apiHolder struct {
	mu  sync.RWMutex
	api platform.API
}

func (h *apiHolder) set(api platform.API) {
	h.mu.Lock()
	h.api = api
	h.mu.Unlock()
}

func (h *apiHolder) get() (platform.API, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.api == nil {
		return nil, fmt.Errorf("platform api not ready")
	}
	return h.api, nil
}

func (h *apiHolder) SendText(ctx context.Context, chatID int64, text string) error {
	api, err := h.get()
	if err != nil {
		return err
	}
	return api.SendText(ctx, chatID, text)
}

func (h *apiHolder) SendHTML(ctx context.Context, chatID int64, text string) error {
	api, err := h.get()
	if err != nil {
		return err
	}
	return api.SendHTML(ctx, chatID, text)
}

func (h *apiHolder) MemberStatus(ctx context.Context, chatID, userID int64) (platform.Status, error) {
	api, err := h.get()
	if err != nil {
		return "", err
	}
	return api.MemberStatus(ctx, chatID, userID)
}

func (h *apiHolder) Ban(ctx context.Context, chatID, userID int64) error {
	api, err := h.get()
	if err != nil {
		return err
	}
	return api.Ban(ctx, chatID, userID)
}

func (h *apiHolder) Unban(ctx context.Context, chatID, userID int64) error {
	api, err := h.get()
	if err != nil {
		return err
	}
	return api.Unban(ctx, chatID, userID)
}

func (h *apiHolder) Leave(ctx context.Context, chatID int64) error {
	api, err := h.get()
	if err != nil {
		return err
	}
	return api.Leave(ctx, chatID)
}
