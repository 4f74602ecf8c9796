package chesspresenter

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/park285/cheese-chess/pkg/chessdto"
)

// SendFunc delivers one text or base64 image payload to a room.
type SendFunc func(ctx context.Context, room, payload string) error

// Presenter delivers formatted messages and board images without coupling to the command layer.
type Presenter struct {
	sendMessage SendFunc
	sendImage   SendFunc
}

func NewPresenter(sendMessage, sendImage SendFunc) *Presenter {
	return &Presenter{
		sendMessage: sendMessage,
		sendImage:   sendImage,
	}
}

// Text sends message alone. Blank messages are dropped.
func (p *Presenter) Text(ctx context.Context, room, message string) error {
	if p == nil || p.sendMessage == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(ctx, room, message)
}

// Board sends message followed by the rendered board of view.
func (p *Presenter) Board(ctx context.Context, room, message string, view *chessdto.GameView) error {
	if p == nil {
		return nil
	}
	if err := p.Text(ctx, room, message); err != nil {
		return err
	}
	if view != nil && len(view.BoardImage) > 0 && p.sendImage != nil {
		encoded := base64.StdEncoding.EncodeToString(view.BoardImage)
		if err := p.sendImage(ctx, room, encoded); err != nil {
			return err
		}
	}
	return nil
}

// Broadcast sends to every distinct room in rooms. Each room gets the view
// returned by viewFor, so players see the board from their own side. A failed
// room does not stop delivery to the rest.
func (p *Presenter) Broadcast(ctx context.Context, rooms []string, message string, viewFor func(room string) *chessdto.GameView) error {
	seen := make(map[string]bool, len(rooms))
	var errs []error
	for _, room := range rooms {
		if room == "" || seen[room] {
			continue
		}
		seen[room] = true
		var view *chessdto.GameView
		if viewFor != nil {
			view = viewFor(room)
		}
		if err := p.Board(ctx, room, message, view); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
