package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/irisfast"
	"github.com/park285/cheese-chess/internal/obslog"
)

// irischeck probes an Iris gateway: GET /config, then logs websocket traffic
// for -wait before closing.
func main() {
	wait := flag.Duration("wait", 10*time.Second, "how long to listen on the websocket")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	baseURL := strings.TrimSpace(os.Getenv("IRIS_BASE_URL"))
	wsURL := strings.TrimSpace(os.Getenv("IRIS_WS_URL"))
	if baseURL == "" {
		logger.Fatal("iris_base_url_missing")
	}

	headers := irisfast.StaticHeaders(os.Getenv("X_USER_ID"), os.Getenv("X_USER_EMAIL"), os.Getenv("X_SESSION_ID"))
	client := irisfast.NewClient(baseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithTimeout(8*time.Second),
		irisfast.WithRetry(1),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	cfg, err := client.GetConfig(ctx)
	cancel()
	if err != nil {
		logger.Error("iris_config_error", zap.Error(err))
	} else {
		logger.Info("iris_config_ok",
			zap.Int("port", cfg.Port),
			zap.Int("polling_speed", cfg.PollingSpeed),
			zap.Int("message_rate", cfg.MessageRate),
			zap.String("endpoint", cfg.WebserverEndpoint),
		)
	}

	if wsURL == "" {
		logger.Info("ws_check_skipped", zap.String("reason", "IRIS_WS_URL not set"))
		return
	}

	ws := irisfast.NewWebSocket(wsURL, 0, time.Second)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.Stringer("state", state))
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		logger.Info("ws_message",
			zap.String("room", msg.Room),
			zap.String("sender", msg.SenderName()),
			zap.String("text", msg.Msg),
		)
	})

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connectCancel()
	if err := ws.Connect(connectCtx); err != nil {
		logger.Error("ws_connect_error", zap.Error(err))
		return
	}

	time.Sleep(*wait)
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := ws.Close(closeCtx); err != nil {
		logger.Warn("ws_close_error", zap.Error(err))
	}
}
