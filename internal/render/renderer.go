package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-chess/internal/chess"
)

type Options struct {
	LastMove *chess.Move
	// Check marks the king square of the side in check.
	Check  *chess.Square
	Hints  []chess.Square
	Header string
	Turn   string
	// Flip draws the board from black's side.
	Flip bool
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board chess.Board, opts Options) ([]byte, error)
}

const (
	squareSize   = 64
	boardSize    = squareSize * 8
	sideMargin   = 28
	topMargin    = 72
	bottomMargin = 28
	panelHeight  = 26
	panelRadius  = 8
	panelPadX    = 16
)

// Layout constants exposed for tests and callers that crop the image.
const (
	ImageWidth  = boardSize + sideMargin*2
	ImageHeight = boardSize + topMargin + bottomMargin
)

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	backgroundColor     = color.RGBA{22, 24, 36, 255}
	whiteMoveFill       = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow      = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	checkFill           = color.NRGBA{R: 230, G: 60, B: 60, A: 150}
	hintDot             = color.NRGBA{R: 40, G: 40, B: 40, A: 110}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnPanelColor   = color.NRGBA{R: 40, G: 44, B: 64, A: 245}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

type svgBoardRenderer struct {
	face font.Face
}

func NewSVGBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{face: basicfont.Face7x13}
}

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, board chess.Board, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, ImageWidth, ImageHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)
	origin := image.Point{X: sideMargin, Y: topMargin}
	g := geometry{origin: origin, flip: opts.Flip}

	r.drawHUD(img, opts)
	drawSquares(img, g)
	if opts.LastMove != nil {
		drawLastMove(img, board, *opts.LastMove, g)
	}
	if opts.Check != nil && opts.Check.Valid() {
		drawSquareOverlay(img, g.rect(*opts.Check), checkFill)
	}

	var drawErr error
	board.Each(func(sq chess.Square, p chess.Piece) {
		if drawErr != nil {
			return
		}
		pimg, err := renderPieceImage(p, squareSize)
		if err != nil {
			drawErr = err
			return
		}
		rect := g.rect(sq)
		imagedraw.Draw(img, rect, pimg, image.Point{}, imagedraw.Over)
	})
	if drawErr != nil {
		return nil, drawErr
	}

	for _, sq := range opts.Hints {
		if !sq.Valid() {
			continue
		}
		rect := g.rect(sq)
		center := image.Pt(rect.Min.X+squareSize/2, rect.Min.Y+squareSize/2)
		drawDisc(img, center, squareSize/7, hintDot)
	}
	r.drawCoordinates(img, g)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type geometry struct {
	origin image.Point
	flip   bool
}

// cell maps a square to its screen column and row.
func (g geometry) cell(sq chess.Square) (int, int) {
	if g.flip {
		return 8 - sq.Col, sq.Row - 1
	}
	return sq.Col - 1, 8 - sq.Row
}

func (g geometry) rect(sq chess.Square) image.Rectangle {
	col, row := g.cell(sq)
	x := g.origin.X + col*squareSize
	y := g.origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareColor(sq chess.Square) color.Color {
	if (sq.Row+sq.Col)%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func drawSquares(dst *image.RGBA, g geometry) {
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			sq := chess.NewSquare(row, col)
			imagedraw.Draw(dst, g.rect(sq), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

// drawLastMove fills both squares for a white move and draws an arrow for a
// black one, judged by the piece now standing on the destination.
func drawLastMove(img *image.RGBA, board chess.Board, m chess.Move, g geometry) {
	if !m.Start.Valid() || !m.End.Valid() {
		return
	}
	if p := board.Piece(m.End); p.Color == chess.Black && !p.IsEmpty() {
		drawArrow(img, g.rect(m.Start), g.rect(m.End), blackMoveArrow)
		return
	}
	drawSquareOverlay(img, g.rect(m.Start), whiteMoveFill)
	drawSquareOverlay(img, g.rect(m.End), whiteMoveFill)
}

func (r *svgBoardRenderer) drawHUD(img *image.RGBA, opts Options) {
	drawer := &font.Drawer{Dst: img, Face: r.face}

	title := strings.TrimSpace(opts.Header)
	if title == "" {
		title = "Chess"
	}
	turn := strings.TrimSpace(opts.Turn)

	titleRect := image.Rect(sideMargin, 12, sideMargin+boardSize, 12+panelHeight)
	title = truncateWithEllipsis(r.face, title, titleRect.Dx()-panelPadX*2)
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawCenteredString(drawer, titleRect, title, hudTextPrimary)

	if turn == "" {
		return
	}
	width := drawer.MeasureString(turn).Round() + panelPadX*2
	if width > boardSize {
		width = boardSize
	}
	left := sideMargin + (boardSize-width)/2
	turnRect := image.Rect(left, titleRect.Max.Y+6, left+width, titleRect.Max.Y+6+panelHeight-6)
	turn = truncateWithEllipsis(r.face, turn, turnRect.Dx()-panelPadX*2)
	drawRoundedPanel(img, turnRect, panelRadius/2, hudTurnPanelColor)
	drawCenteredString(drawer, turnRect, turn, hudTextPrimary)
}

func (r *svgBoardRenderer) drawCoordinates(img *image.RGBA, g geometry) {
	drawer := &font.Drawer{Dst: img, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	for i := 1; i <= 8; i++ {
		rankRect := g.rect(chess.NewSquare(i, 1))
		if g.flip {
			rankRect = g.rect(chess.NewSquare(i, 8))
		}
		drawCenteredText(drawer, fmt.Sprint(i), g.origin.X-sideMargin/2, rankRect.Min.Y+squareSize/2+ascent/2)

		fileRect := g.rect(chess.NewSquare(1, i))
		if g.flip {
			fileRect = g.rect(chess.NewSquare(8, i))
		}
		file := string(rune('a' + i - 1))
		drawCenteredText(drawer, file, fileRect.Min.X+squareSize/2, g.origin.Y+boardSize+ascent+4)
	}
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
