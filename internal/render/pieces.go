package render

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/cheese-chess/internal/chess"
)

// Glyph bodies on a 45x45 canvas. {F} is the body fill, {S} the outline.
var glyphBodies = map[chess.PieceType]string{
	chess.Pawn: `<circle cx="22.5" cy="15" r="5.5" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<path d="M 16 37 L 19 24 L 26 24 L 29 37 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="12" y="36" width="21" height="4" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	chess.Rook: `<path d="M 11 9 L 15 9 L 15 12 L 20 12 L 20 9 L 25 9 L 25 12 L 30 12 L 30 9 L 34 9 L 34 16 L 11 16 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="14" y="16" width="17" height="18" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="10" y="34" width="25" height="5" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	chess.Knight: `<path d="M 14 38 L 32 38 L 31 24 C 31 14 26 9 20 8 L 18 6 L 16 10 C 12 13 9 18 9 22 L 12 24 L 17 20 L 19 22 C 15 27 13 32 14 38 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<circle cx="17" cy="14" r="1.5" fill="{S}"/>`,
	chess.Bishop: `<circle cx="22.5" cy="8" r="2.5" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<path d="M 22.5 11 C 15 16 14 24 17 30 L 28 30 C 31 24 30 16 22.5 11 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<path d="M 20 18 L 25 23" stroke="{S}" stroke-width="1.5"/>
<rect x="12" y="33" width="21" height="5" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	chess.Queen: `<path d="M 9 14 L 14 28 L 17 12 L 22.5 27 L 28 12 L 31 28 L 36 14 L 33 34 L 12 34 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<circle cx="9" cy="12" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<circle cx="17" cy="10" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<circle cx="28" cy="10" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<circle cx="36" cy="12" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="11" y="34" width="23" height="4" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	chess.King: `<path d="M 22.5 4 L 22.5 12 M 19 7.5 L 26 7.5" stroke="{S}" stroke-width="1.8"/>
<path d="M 22.5 13 C 26 13 28 16 26 20 L 33 17 C 38 20 37 28 32 32 L 13 32 C 8 28 7 20 12 17 L 19 20 C 17 16 19 13 22.5 13 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="12" y="33" width="21" height="5" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
}

func glyphSVG(p chess.Piece) (string, error) {
	body, ok := glyphBodies[p.Type]
	if !ok {
		return "", fmt.Errorf("no glyph for %v", p)
	}
	fill, stroke := "#ffffff", "#000000"
	if p.Color == chess.Black {
		fill, stroke = "#1e1e1e", "#000000"
	}
	body = strings.NewReplacer("{F}", fill, "{S}", stroke).Replace(body)
	return `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">` + body + `</svg>`, nil
}

type pieceCacheKey struct {
	piece chess.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(p chess.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: p, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := glyphSVG(p)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %v: %w", p, err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}
