package chessbot

import (
	"context"
	"regexp"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-chess/internal/adapter/chesspresenter"
	"github.com/park285/cheese-chess/internal/archive"
	"github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/irisfast"
	"github.com/park285/cheese-chess/internal/msgcat"
	"github.com/park285/cheese-chess/internal/pvpchan"
	"github.com/park285/cheese-chess/internal/pvpchess"
)

var codePattern = regexp.MustCompile(`CH-[A-Z0-9]{6}`)

type outbound struct {
	kind, room, payload string
}

type outbox struct{ items []outbound }

func (o *outbox) send(kind string) chesspresenter.SendFunc {
	return func(_ context.Context, room, payload string) error {
		o.items = append(o.items, outbound{kind, room, payload})
		return nil
	}
}

// take returns and clears everything sent so far.
func (o *outbox) take() []outbound {
	out := o.items
	o.items = nil
	return out
}

func texts(items []outbound, room string) []string {
	var out []string
	for _, it := range items {
		if it.kind == "text" && it.room == room {
			out = append(out, it.payload)
		}
	}
	return out
}

func images(items []outbound, room string) int {
	n := 0
	for _, it := range items {
		if it.kind == "image" && it.room == room && it.payload != "" {
			n++
		}
	}
	return n
}

func newTestHandler(t *testing.T, cfg *config.AppConfig) (*Handler, *outbox) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	games := pvpchess.NewManager(rdb)
	games.AttachArchive(archive.NewMemory())
	lobby := pvpchan.NewManager(rdb, games, 0)
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	box := &outbox{}
	p := chesspresenter.NewPresenter(box.send("text"), box.send("image"))
	return NewHandler(cfg, games, lobby, p, chesspresenter.NewFormatter(cat, cfg.BotPrefix)), box
}

func chat(room, userID, name, text string) *irisfast.Message {
	return &irisfast.Message{Msg: text, Room: room, Sender: &name, JSON: &irisfast.MessageJSON{UserID: userID}}
}

func lastText(t *testing.T, items []outbound, room string) string {
	t.Helper()
	got := texts(items, room)
	if len(got) == 0 {
		t.Fatalf("no text sent to %s: %+v", room, items)
	}
	return got[len(got)-1]
}

func TestFullGameFlow(t *testing.T) {
	h, box := newTestHandler(t, &config.AppConfig{BotPrefix: "!"})
	ctx := context.Background()

	h.Handle(ctx, chat("roomA", "u1", "Alice", "!pvp make white"))
	created := lastText(t, box.take(), "roomA")
	code := codePattern.FindString(created)
	if code == "" {
		t.Fatalf("no channel code in %q", created)
	}

	h.Handle(ctx, chat("roomB", "u2", "Bob", "!pvp join "+strings.ToLower(code)))
	out := box.take()
	for _, room := range []string{"roomA", "roomB"} {
		if txt := lastText(t, out, room); !strings.Contains(txt, "Alice(백) vs Bob(흑)") {
			t.Fatalf("%s got %q", room, txt)
		}
		if images(out, room) != 1 {
			t.Fatalf("%s expected one board image: %+v", room, out)
		}
	}

	h.Handle(ctx, chat("roomB", "u2", "Bob", "!pvp e7e5"))
	if txt := lastText(t, box.take(), "roomB"); txt != "상대 차례입니다." {
		t.Fatalf("wrong-turn reply %q", txt)
	}

	h.Handle(ctx, chat("roomA", "u1", "Alice", "!pvp E2E4"))
	out = box.take()
	for _, room := range []string{"roomA", "roomB"} {
		if txt := lastText(t, out, room); !strings.HasPrefix(txt, "Alice: e4") {
			t.Fatalf("%s got %q", room, txt)
		}
	}

	h.Handle(ctx, chat("roomB", "u2", "Bob", "!pvp hint e7"))
	out = box.take()
	if txt := lastText(t, out, "roomB"); !strings.Contains(txt, "e5") || !strings.Contains(txt, "e6") {
		t.Fatalf("hint reply %q", txt)
	}
	if images(out, "roomB") != 1 || len(texts(out, "roomA")) != 0 {
		t.Fatalf("hint should answer only the asking room: %+v", out)
	}

	h.Handle(ctx, chat("roomB", "u2", "Bob", "!pvp e7e4"))
	if txt := lastText(t, box.take(), "roomB"); txt != "둘 수 없는 수입니다." {
		t.Fatalf("illegal reply %q", txt)
	}

	h.Handle(ctx, chat("roomA", "u1", "Alice", "!pvp status"))
	if txt := lastText(t, box.take(), "roomA"); !strings.Contains(txt, "최근 수: e4") {
		t.Fatalf("status reply %q", txt)
	}

	h.Handle(ctx, chat("roomB", "u2", "Bob", "!pvp resign"))
	out = box.take()
	for _, room := range []string{"roomA", "roomB"} {
		if txt := lastText(t, out, room); txt != "Bob 기권. Alice 승리" {
			t.Fatalf("%s got %q", room, txt)
		}
	}

	h.Handle(ctx, chat("roomA", "u1", "Alice", "!pvp history"))
	if txt := lastText(t, box.take(), "roomA"); !strings.Contains(txt, "전적: 1승 0패 0무") {
		t.Fatalf("history reply %q", txt)
	}

	h.Handle(ctx, chat("roomA", "u1", "Alice", "!pvp status"))
	if txt := lastText(t, box.take(), "roomA"); txt != "진행 중인 대국이 없습니다." {
		t.Fatalf("status after resign %q", txt)
	}
}

func TestLobbyListAndCancel(t *testing.T) {
	h, box := newTestHandler(t, &config.AppConfig{BotPrefix: "!"})
	ctx := context.Background()

	h.Handle(ctx, chat("roomA", "u1", "Alice", "!pvp list"))
	if txt := lastText(t, box.take(), "roomA"); txt != "대기 중인 채널이 없습니다." {
		t.Fatalf("empty list %q", txt)
	}
	h.Handle(ctx, chat("roomA", "u1", "Alice", "!pvp make"))
	code := codePattern.FindString(lastText(t, box.take(), "roomA"))

	h.Handle(ctx, chat("roomA", "u1", "Alice", "!pvp make"))
	if txt := lastText(t, box.take(), "roomA"); txt != "이미 대기 중인 채널이 있습니다: "+code {
		t.Fatalf("second make %q", txt)
	}

	h.Handle(ctx, chat("roomC", "u3", "Carol", "!pvp list"))
	if txt := lastText(t, box.take(), "roomC"); !strings.Contains(txt, code+" · Alice") {
		t.Fatalf("list %q", txt)
	}

	h.Handle(ctx, chat("roomA", "u1", "Alice", "!pvp cancel"))
	if txt := lastText(t, box.take(), "roomA"); !strings.Contains(txt, code) {
		t.Fatalf("cancel %q", txt)
	}
	h.Handle(ctx, chat("roomC", "u3", "Carol", "!pvp join "+code))
	if txt := lastText(t, box.take(), "roomC"); txt != "채널을 찾을 수 없습니다." {
		t.Fatalf("join cancelled %q", txt)
	}
}

func TestIgnoredMessages(t *testing.T) {
	h, box := newTestHandler(t, &config.AppConfig{BotPrefix: "!", AllowedRooms: []string{"roomA"}})
	ctx := context.Background()

	h.Handle(ctx, chat("roomA", "u1", "Alice", "pvp list"))
	h.Handle(ctx, chat("roomB", "u1", "Alice", "!pvp list"))
	h.Handle(ctx, nil)
	h.Handle(ctx, &irisfast.Message{Msg: "!pvp list", Room: "roomA"})
	if out := box.take(); len(out) != 0 {
		t.Fatalf("expected no replies, got %+v", out)
	}

	h.Handle(ctx, chat("roomA", "u1", "Alice", "!help"))
	if txt := lastText(t, box.take(), "roomA"); !strings.HasPrefix(txt, "♟ 체스 명령어") {
		t.Fatalf("help %q", txt)
	}
}
