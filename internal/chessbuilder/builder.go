package chessbuilder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/adapter/chesspresenter"
	"github.com/park285/cheese-chess/internal/archive"
	"github.com/park285/cheese-chess/internal/chessbot"
	"github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/irisfast"
	"github.com/park285/cheese-chess/internal/msgcat"
	"github.com/park285/cheese-chess/internal/pvpchan"
	"github.com/park285/cheese-chess/internal/pvpchess"
)

const (
	wsReconnectAttempts = 5
	wsReconnectDelay    = time.Second
)

type Deps struct {
	Redis     *redis.Client
	Archive   archive.Repository
	Games     *pvpchess.Manager
	Lobby     *pvpchan.Manager
	Client    *irisfast.Client
	WS        *irisfast.WebSocket
	Egress    irisfast.Egress
	Presenter *chesspresenter.Presenter
	Formatter *chesspresenter.Formatter
	Handler   *chessbot.Handler
}

// New wires every dependency from cfg. The websocket is created but not connected.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("init messages: %w", err)
	}

	rdb, err := pvpchess.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	repo, err := archive.Open(ctx, cfg)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("init archive: %w", err)
	}

	games := pvpchess.NewManager(rdb)
	games.SetTTL(time.Duration(cfg.GameTTLSec) * time.Second)
	games.AttachArchive(repo)
	lobby := pvpchan.NewManager(rdb, games, time.Duration(cfg.LobbyTTLSec)*time.Second)

	headers := irisfast.StaticHeaders(cfg.XUserID, cfg.XUserEmail, cfg.XSessionID)
	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, wsReconnectAttempts, wsReconnectDelay)
	ws.SetHeaderProvider(headers)
	egress := irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, logger)

	presenter := chesspresenter.NewPresenter(egress.SendText, egress.SendImage)
	formatter := chesspresenter.NewFormatter(cat, cfg.BotPrefix)

	logger.Info("chess_deps_ready",
		zap.String("archive", cfg.ArchiveBackend),
		zap.String("egress", cfg.EgressMode),
		zap.Bool("dryrun", cfg.EgressDryRun),
		zap.Int("allowed_rooms", len(cfg.AllowedRooms)),
	)
	return &Deps{
		Redis:     rdb,
		Archive:   repo,
		Games:     games,
		Lobby:     lobby,
		Client:    client,
		WS:        ws,
		Egress:    egress,
		Presenter: presenter,
		Formatter: formatter,
		Handler:   chessbot.NewHandler(cfg, games, lobby, presenter, formatter),
	}, nil
}

// Close shuts down the websocket, the archive and the Redis client.
func (d *Deps) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.WS != nil {
		errs = append(errs, d.WS.Close(ctx))
	}
	if d.Archive != nil {
		errs = append(errs, d.Archive.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	return errors.Join(errs...)
}
