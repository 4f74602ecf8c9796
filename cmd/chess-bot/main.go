package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/chessbuilder"
	appcfg "github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/irisfast"
	"github.com/park285/cheese-chess/internal/obslog"
)

const commandTimeout = 15 * time.Second

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.Init(cfg.Log); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := chessbuilder.New(initCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("chess_init_error", zap.Error(err))
	}

	deps.WS.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})
	deps.WS.OnMessage(func(msg *irisfast.Message) {
		if msg == nil || msg.Msg == "" {
			return
		}
		// keep the read loop free
		go func() {
			cctx, cancel := context.WithTimeout(ctx, commandTimeout)
			defer cancel()
			deps.Handler.Handle(cctx, msg)
		}()
	})

	cctx, ccancel := context.WithTimeout(ctx, 10*time.Second)
	err = deps.WS.Connect(cctx)
	ccancel()
	if err != nil {
		logger.Fatal("ws_connect_error", zap.Error(err))
	}
	logger.Info("chess_bot_started", zap.String("prefix", cfg.BotPrefix), zap.String("ws", cfg.IrisWSURL))

	<-ctx.Done()
	logger.Info("chess_bot_stopping")
	shutdownCtx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := deps.Close(shutdownCtx); err != nil {
		logger.Warn("shutdown_error", zap.Error(err))
	}
}
