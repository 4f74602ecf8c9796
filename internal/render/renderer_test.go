package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/park285/cheese-chess/internal/chess"
)

func decode(t *testing.T, raw []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	return img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func corner(g geometry, s string) image.Point {
	sq, _ := chess.ParseSquare(s)
	r := g.rect(sq)
	return image.Pt(r.Min.X+1, r.Min.Y+1)
}

func TestRenderStartPosition(t *testing.T) {
	r := NewSVGBoardRenderer()
	raw, err := r.RenderPNG(context.Background(), chess.NewBoard(), Options{Header: "alice vs bob", Turn: "white"})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, raw)
	if b := img.Bounds(); b.Dx() != ImageWidth || b.Dy() != ImageHeight {
		t.Fatalf("bounds %v", b)
	}

	g := geometry{origin: image.Pt(sideMargin, topMargin)}
	if got := rgbaAt(img, corner(g, "e4").X, corner(g, "e4").Y); got != lightSquare {
		t.Fatalf("e4 corner = %v want light", got)
	}
	if got := rgbaAt(img, corner(g, "d4").X, corner(g, "d4").Y); got != darkSquare {
		t.Fatalf("d4 corner = %v want dark", got)
	}
	// 킹 중심부는 흰색 글리프로 칠해져 있어야 함
	e1, _ := chess.ParseSquare("e1")
	rect := g.rect(e1)
	if got := rgbaAt(img, rect.Min.X+squareSize/2, rect.Min.Y+squareSize*3/4); got == lightSquare || got == darkSquare {
		t.Fatalf("e1 center shows bare square, glyph missing")
	}
}

func TestFlipMirrorsBoard(t *testing.T) {
	g := geometry{origin: image.Pt(0, 0)}
	f := geometry{origin: image.Pt(0, 0), flip: true}
	a1, _ := chess.ParseSquare("a1")
	h8, _ := chess.ParseSquare("h8")
	if g.rect(a1) != f.rect(h8) {
		t.Fatalf("flip should put h8 where a1 was: %v vs %v", g.rect(a1), f.rect(h8))
	}
	if g.rect(a1).Min != image.Pt(0, 7*squareSize) {
		t.Fatalf("a1 should be bottom-left, got %v", g.rect(a1))
	}
}

func TestHighlightsChangeSquares(t *testing.T) {
	r := NewSVGBoardRenderer()
	game := chess.NewGame()
	m, _ := chess.ParseMove("e2e4")
	if err := game.MakeMove(m); err != nil {
		t.Fatalf("MakeMove: %v", err)
	}
	check, _ := chess.ParseSquare("h5")
	raw, err := r.RenderPNG(context.Background(), game.Board(), Options{LastMove: &m, Check: &check})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, raw)
	g := geometry{origin: image.Pt(sideMargin, topMargin)}

	e2 := corner(g, "e2")
	if got := rgbaAt(img, e2.X, e2.Y); got == lightSquare || got == darkSquare {
		t.Fatalf("e2 should be highlighted, got %v", got)
	}
	h5 := corner(g, "h5")
	if got := rgbaAt(img, h5.X, h5.Y); int(got.R) < int(got.G)+60 {
		t.Fatalf("h5 should carry the red check overlay, got %v", got)
	}
}

func TestArrowHintAndPanelShapes(t *testing.T) {
	r := NewSVGBoardRenderer()
	game := chess.NewGame()
	white, _ := chess.ParseMove("d2d4")
	black, _ := chess.ParseMove("e7e5")
	if err := game.MakeMove(white); err != nil {
		t.Fatalf("MakeMove: %v", err)
	}
	if err := game.MakeMove(black); err != nil {
		t.Fatalf("MakeMove: %v", err)
	}
	hint, _ := chess.ParseSquare("c4")
	raw, err := r.RenderPNG(context.Background(), game.Board(), Options{LastMove: &black, Hints: []chess.Square{hint}, Header: "x"})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, raw)
	g := geometry{origin: image.Pt(sideMargin, topMargin)}

	e6, _ := chess.ParseSquare("e6")
	rect := g.rect(e6)
	mid := rgbaAt(img, rect.Min.X+squareSize/2, rect.Min.Y+squareSize/2)
	if mid == lightSquare || mid.B <= mid.R {
		t.Fatalf("arrow shaft missing on e6, got %v", mid)
	}
	if c := corner(g, "e6"); rgbaAt(img, c.X, c.Y) != lightSquare {
		t.Fatalf("arrow should not cover the e6 corner")
	}

	rect = g.rect(hint)
	dot := rgbaAt(img, rect.Min.X+squareSize/2, rect.Min.Y+squareSize/2)
	if dot == lightSquare || dot == darkSquare {
		t.Fatalf("hint dot missing on c4, got %v", dot)
	}
	if c := corner(g, "c4"); rgbaAt(img, c.X, c.Y) == dot {
		t.Fatalf("hint dot should stay inside the square")
	}

	if got := rgbaAt(img, sideMargin+4, 12+panelHeight/2); got == backgroundColor {
		t.Fatalf("title panel not drawn")
	}
	if got := rgbaAt(img, sideMargin, 12); got != backgroundColor {
		t.Fatalf("panel corner should be rounded, got %v", got)
	}
}

func TestRenderHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSVGBoardRenderer().RenderPNG(ctx, chess.NewBoard(), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEveryGlyphRasterizes(t *testing.T) {
	for _, c := range []chess.Color{chess.White, chess.Black} {
		for _, pt := range []chess.PieceType{chess.King, chess.Queen, chess.Rook, chess.Bishop, chess.Knight, chess.Pawn} {
			img, err := renderPieceImage(chess.NewPiece(c, pt), 48)
			if err != nil {
				t.Fatalf("%v %v: %v", c, pt, err)
			}
			opaque := 0
			b := img.Bounds()
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
						opaque++
					}
				}
			}
			if opaque < 100 {
				t.Fatalf("%v %v: glyph nearly empty (%d px)", c, pt, opaque)
			}
		}
	}
}
