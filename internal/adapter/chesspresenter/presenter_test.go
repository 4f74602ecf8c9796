package chesspresenter

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/park285/cheese-chess/pkg/chessdto"
)

type sent struct {
	kind, room, payload string
}

func recorder(out *[]sent, failRoom string) (SendFunc, SendFunc) {
	mk := func(kind string) SendFunc {
		return func(_ context.Context, room, payload string) error {
			if room == failRoom {
				return errors.New("boom")
			}
			*out = append(*out, sent{kind, room, payload})
			return nil
		}
	}
	return mk("text"), mk("image")
}

func TestBoardSendsTextThenImage(t *testing.T) {
	var got []sent
	p := NewPresenter(recorder(&got, ""))
	view := &chessdto.GameView{BoardImage: []byte("png")}
	if err := p.Board(context.Background(), "room1", "hello", view); err != nil {
		t.Fatalf("Board: %v", err)
	}
	want := []sent{{"text", "room1", "hello"}, {"image", "room1", base64.StdEncoding.EncodeToString([]byte("png"))}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %+v", got)
	}
}

func TestBoardSkipsBlankTextAndMissingImage(t *testing.T) {
	var got []sent
	p := NewPresenter(recorder(&got, ""))
	if err := p.Board(context.Background(), "room1", "  ", &chessdto.GameView{}); err != nil {
		t.Fatalf("Board: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected nothing sent, got %+v", got)
	}
	var nilPresenter *Presenter
	if err := nilPresenter.Board(context.Background(), "room1", "x", nil); err != nil {
		t.Fatalf("nil presenter: %v", err)
	}
}

func TestBroadcastPerRoomViewAndErrors(t *testing.T) {
	var got []sent
	p := NewPresenter(recorder(&got, "bad"))
	views := map[string]*chessdto.GameView{
		"roomA": {BoardImage: []byte("a")},
		"roomB": {BoardImage: []byte("b")},
	}
	err := p.Broadcast(context.Background(), []string{"roomA", "bad", "roomA", "roomB"}, "move", func(room string) *chessdto.GameView {
		return views[room]
	})
	if err == nil {
		t.Fatalf("expected error from failing room")
	}
	if len(got) != 4 {
		t.Fatalf("expected two rooms delivered once each, got %+v", got)
	}
	if got[1].payload != base64.StdEncoding.EncodeToString([]byte("a")) || got[3].payload != base64.StdEncoding.EncodeToString([]byte("b")) {
		t.Fatalf("rooms got the wrong board: %+v", got)
	}
}
