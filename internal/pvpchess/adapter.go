package pvpchess

import (
	"context"
	"fmt"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/render"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

var pieceValues = map[chess.PieceType]int{
	chess.Queen:  9,
	chess.Rook:   5,
	chess.Bishop: 3,
	chess.Knight: 3,
	chess.Pawn:   1,
}

// ToDTO renders the board from viewerID's side and returns a view for the presenter.
func (m *Manager) ToDTO(ctx context.Context, g *Game, viewerID string) (*chessdto.GameView, error) {
	return m.toDTO(ctx, g, viewerID, nil)
}

// MoveDTO wraps a MoveResult with a board rendered for the mover.
func (m *Manager) MoveDTO(ctx context.Context, res *MoveResult, viewerID string) (*chessdto.MoveSummary, error) {
	if res == nil || res.Game == nil {
		return nil, nil
	}
	view, err := m.toDTO(ctx, res.Game, viewerID, nil)
	if err != nil {
		return nil, err
	}
	return &chessdto.MoveSummary{
		View:      view,
		Player:    res.Game.NameOf(res.Mover),
		PlayerSAN: res.SAN,
		PlayerUCI: res.Move.String(),
		Check:     res.Check,
		Finished:  res.Finished(),
	}, nil
}

// HintDTO renders the hint targets as dots on the board.
func (m *Manager) HintDTO(ctx context.Context, h *HintResult, viewerID string) (*chessdto.HintView, error) {
	if h == nil || h.Game == nil {
		return nil, nil
	}
	targets := make([]chess.Square, 0, len(h.Moves))
	names := make([]string, 0, len(h.Moves))
	seen := map[chess.Square]bool{}
	for _, mv := range h.Moves {
		if seen[mv.End] {
			continue
		}
		seen[mv.End] = true
		targets = append(targets, mv.End)
		names = append(names, mv.End.String())
	}
	view, err := m.toDTO(ctx, h.Game, viewerID, targets)
	if err != nil {
		return nil, err
	}
	return &chessdto.HintView{View: view, Square: h.Square.String(), Targets: names}, nil
}

func (m *Manager) toDTO(ctx context.Context, g *Game, viewerID string, hints []chess.Square) (*chessdto.GameView, error) {
	if m == nil || g == nil {
		return nil, nil
	}
	game, err := chess.ParseFEN(g.FEN)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", g.ID, err)
	}
	board := game.Board()
	status, err := game.Status()
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", g.ID, err)
	}
	inCheck := status == chess.StatusCheck || status == chess.StatusCheckmate

	opts := render.Options{
		Header: fmt.Sprintf("%s vs %s", g.WhiteName, g.BlackName),
		Turn:   hudTurn(g),
		Hints:  hints,
		Flip:   g.ColorOf(viewerID) == Black,
	}
	if n := len(g.MovesUCI); n > 0 {
		if last, perr := chess.ParseMove(g.MovesUCI[n-1]); perr == nil {
			opts.LastMove = &last
		}
	}
	if inCheck {
		if king, kerr := board.KingSquare(game.Turn()); kerr == nil {
			opts.Check = &king
		}
	}

	var png []byte
	if m.renderer != nil {
		png, err = m.renderer.RenderPNG(ctx, board, opts)
		if err != nil {
			return nil, err
		}
	}
	return &chessdto.GameView{
		GameID:     g.ID,
		WhiteID:    g.WhiteID,
		WhiteName:  g.WhiteName,
		BlackID:    g.BlackID,
		BlackName:  g.BlackName,
		Turn:       string(g.Turn),
		Status:     string(g.Status),
		Outcome:    g.Outcome,
		Method:     g.Method,
		Winner:     g.Winner,
		InCheck:    inCheck,
		MovesSAN:   append([]string(nil), g.MovesSAN...),
		MovesUCI:   append([]string(nil), g.MovesUCI...),
		FEN:        g.FEN,
		BoardImage: png,
		MoveCount:  len(g.MovesUCI),
		Material:   material(&board),
		Captured: chessdto.CapturedPieces{
			White: append([]string(nil), g.CapturedByWhite...),
			Black: append([]string(nil), g.CapturedByBlack...),
		},
	}, nil
}

func material(b *chess.Board) chessdto.MaterialScore {
	var score chessdto.MaterialScore
	b.Each(func(_ chess.Square, p chess.Piece) {
		if p.Color == chess.White {
			score.White += pieceValues[p.Type]
		} else {
			score.Black += pieceValues[p.Type]
		}
	})
	return score
}

// hudTurn stays within ASCII since the HUD font has no Hangul glyphs.
func hudTurn(g *Game) string {
	if g.Status != StatusActive {
		return fmt.Sprintf("%s - %d plies", g.Status, len(g.MovesUCI))
	}
	turnNumber := len(g.MovesUCI)/2 + 1
	if g.Turn == White {
		return fmt.Sprintf("White - move %d", turnNumber)
	}
	return fmt.Sprintf("Black - move %d", turnNumber)
}
