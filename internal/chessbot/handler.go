package chessbot

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/adapter/chesspresenter"
	"github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/irisfast"
	"github.com/park285/cheese-chess/internal/obslog"
	"github.com/park285/cheese-chess/internal/pvpchan"
	"github.com/park285/cheese-chess/internal/pvpchess"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

const defaultHistoryLimit = 10

// Handler routes chat commands to the lobby and game managers.
type Handler struct {
	cfg       *config.AppConfig
	games     *pvpchess.Manager
	lobby     *pvpchan.Manager
	presenter *chesspresenter.Presenter
	formatter *chesspresenter.Formatter
}

func NewHandler(cfg *config.AppConfig, games *pvpchess.Manager, lobby *pvpchan.Manager, presenter *chesspresenter.Presenter, formatter *chesspresenter.Formatter) *Handler {
	return &Handler{cfg: cfg, games: games, lobby: lobby, presenter: presenter, formatter: formatter}
}

// Handle processes one chat message. Messages without the bot prefix or
// from rooms outside the allowlist are ignored.
func (h *Handler) Handle(ctx context.Context, msg *irisfast.Message) {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" {
		return
	}
	text := strings.TrimSpace(msg.Msg)
	if !strings.HasPrefix(text, h.cfg.BotPrefix) {
		return
	}
	if !h.cfg.RoomAllowed(msg.Room) {
		obslog.L().Debug("room_not_allowed", zap.String("room", msg.Room))
		return
	}
	meta := chessdto.RequestMeta{Room: msg.Room, Sender: msg.UserID(), SenderName: msg.SenderName()}
	if meta.Sender == "" {
		return
	}

	parts := strings.Fields(strings.TrimPrefix(text, h.cfg.BotPrefix))
	if len(parts) == 0 {
		h.reply(ctx, meta.Room, h.formatter.Help())
		return
	}
	switch strings.ToLower(parts[0]) {
	case "pvp":
		h.handlePvp(ctx, meta, parts[1:])
	case "help", "도움말":
		h.reply(ctx, meta.Room, h.formatter.Help())
	}
}

func (h *Handler) handlePvp(ctx context.Context, meta chessdto.RequestMeta, args []string) {
	if len(args) == 0 {
		h.reply(ctx, meta.Room, h.formatter.Help())
		return
	}
	sub := strings.ToLower(strings.TrimSpace(args[0]))
	rest := args[1:]
	logger := obslog.L().With(zap.String("room", meta.Room), zap.String("user_id", meta.Sender), zap.String("cmd", sub))

	var err error
	switch sub {
	case "make", "생성":
		err = h.makeLobby(ctx, meta, rest)
	case "join", "참가":
		err = h.joinLobby(ctx, meta, rest)
	case "list", "목록":
		err = h.listLobby(ctx, meta)
	case "cancel", "취소":
		err = h.cancelLobby(ctx, meta)
	case "status", "현황":
		err = h.status(ctx, meta)
	case "hint", "힌트":
		err = h.hint(ctx, meta, rest)
	case "resign", "기권":
		err = h.resign(ctx, meta)
	case "history", "기록":
		err = h.history(ctx, meta, rest)
	case "help":
		h.reply(ctx, meta.Room, h.formatter.Help())
	default:
		err = h.move(ctx, meta, sub)
	}
	if err == nil {
		return
	}
	de := chesspresenter.ToDomainError(err)
	if de.Code == chessdto.CodeInternal {
		logger.Error("pvp_command_error", zap.Error(err))
	} else {
		logger.Info("pvp_command_rejected", zap.String("code", de.Code), zap.Error(err))
	}
	h.reply(ctx, meta.Room, h.formatter.Error(err))
}

func (h *Handler) makeLobby(ctx context.Context, meta chessdto.RequestMeta, args []string) error {
	color := pvpchan.ColorRandom
	if len(args) > 0 {
		color = pvpchan.ParseColorChoice(args[0])
	}
	res, err := h.lobby.Make(ctx, meta.Room, meta.Sender, meta.SenderName, color)
	if err != nil {
		return err
	}
	h.reply(ctx, meta.Room, h.formatter.LobbyCreated(res.Code, string(color)))
	return nil
}

func (h *Handler) joinLobby(ctx context.Context, meta chessdto.RequestMeta, args []string) error {
	if len(args) == 0 {
		h.reply(ctx, meta.Room, h.formatter.Help())
		return nil
	}
	res, err := h.lobby.Join(ctx, meta.Room, args[0], meta.Sender, meta.SenderName)
	if err != nil {
		return err
	}
	g, err := h.games.LoadGame(ctx, res.GameID)
	if err != nil {
		return err
	}
	if g == nil {
		return pvpchess.ErrNoActiveGame
	}
	views, err := h.viewsByRoom(ctx, g, meta.Sender)
	if err != nil {
		return err
	}
	h.broadcast(ctx, g, h.formatter.LobbyJoined(views[g.OriginRoom]), views)
	return nil
}

func (h *Handler) listLobby(ctx context.Context, meta chessdto.RequestMeta) error {
	list, err := h.lobby.ListLobby(ctx)
	if err != nil {
		return err
	}
	h.reply(ctx, meta.Room, h.formatter.LobbyList(chesspresenter.ToLobbyEntries(list)))
	return nil
}

func (h *Handler) cancelLobby(ctx context.Context, meta chessdto.RequestMeta) error {
	code, err := h.lobby.Cancel(ctx, meta.Sender)
	if err != nil {
		return err
	}
	h.reply(ctx, meta.Room, h.formatter.LobbyCancelled(code))
	return nil
}

func (h *Handler) status(ctx context.Context, meta chessdto.RequestMeta) error {
	g, err := h.games.Status(ctx, meta.Sender, meta.Room)
	if err != nil {
		return err
	}
	view, err := h.games.ToDTO(ctx, g, meta.Sender)
	if err != nil {
		return err
	}
	return h.presenter.Board(ctx, meta.Room, h.formatter.Status(view), view)
}

func (h *Handler) hint(ctx context.Context, meta chessdto.RequestMeta, args []string) error {
	if len(args) == 0 {
		return pvpchess.ErrBadSquare
	}
	res, err := h.games.ValidMoves(ctx, meta.Sender, meta.Room, strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	hv, err := h.games.HintDTO(ctx, res, meta.Sender)
	if err != nil {
		return err
	}
	return h.presenter.Board(ctx, meta.Room, h.formatter.Hint(hv), hv.View)
}

func (h *Handler) resign(ctx context.Context, meta chessdto.RequestMeta) error {
	g, err := h.games.Resign(ctx, meta.Sender, meta.Room)
	if err != nil {
		return err
	}
	views, err := h.viewsByRoom(ctx, g, meta.Sender)
	if err != nil {
		return err
	}
	h.broadcast(ctx, g, h.formatter.Resign(views[meta.Room]), views)
	return nil
}

func (h *Handler) history(ctx context.Context, meta chessdto.RequestMeta, args []string) error {
	limit := defaultHistoryLimit
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}
	recs, err := h.games.History(ctx, meta.Sender, limit)
	if err != nil {
		return err
	}
	h.reply(ctx, meta.Room, h.formatter.History(chesspresenter.ToPlayerHistory(meta.Sender, recs)))
	return nil
}

func (h *Handler) move(ctx context.Context, meta chessdto.RequestMeta, text string) error {
	res, err := h.games.PlayMove(ctx, meta.Sender, meta.Room, text)
	if err != nil {
		return err
	}
	summary, err := h.games.MoveDTO(ctx, res, meta.Sender)
	if err != nil {
		return err
	}
	views, err := h.viewsByRoom(ctx, res.Game, meta.Sender)
	if err != nil {
		return err
	}
	h.broadcast(ctx, res.Game, h.formatter.Move(summary), views)
	return nil
}

// viewsByRoom renders the board once per room from the side of the player there.
func (h *Handler) viewsByRoom(ctx context.Context, g *pvpchess.Game, requester string) (map[string]*chessdto.GameView, error) {
	views := make(map[string]*chessdto.GameView, 2)
	for _, room := range g.Rooms() {
		view, err := h.games.ToDTO(ctx, g, g.ViewerIn(room, requester))
		if err != nil {
			return nil, err
		}
		views[room] = view
	}
	return views, nil
}

// broadcast delivers to both rooms of g. The game state is already committed,
// so delivery failures are only logged.
func (h *Handler) broadcast(ctx context.Context, g *pvpchess.Game, text string, views map[string]*chessdto.GameView) {
	err := h.presenter.Broadcast(ctx, g.Rooms(), text, func(room string) *chessdto.GameView { return views[room] })
	if err != nil {
		obslog.L().Warn("pvp_broadcast_error", zap.String("game_id", g.ID), zap.Error(err))
	}
}

func (h *Handler) reply(ctx context.Context, room, text string) {
	if err := h.presenter.Text(ctx, room, text); err != nil {
		obslog.L().Warn("reply_error", zap.String("room", room), zap.Error(err))
	}
}
