package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wricardo/mcp-training/boardgames/game/chess"
	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/game/tictactoe"
)

var ErrNilSnapshot = errors.New("snapshot is nil")

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	backgroundColor = color.RGBA{36, 38, 48, 255}
	lastMoveFill    = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	coordinateColor = color.RGBA{220, 220, 220, 255}
	gridColor       = color.RGBA{60, 60, 70, 255}
	cellColor       = color.RGBA{245, 240, 228, 255}
	cellNumberColor = color.RGBA{170, 160, 150, 255}
)

const (
	margin       = 24
	footerHeight = 28
)

type iconKey struct {
	name string
	size int
}

// Renderer draws session snapshots as PNG images. Rasterised pieces are
// cached per size.
type Renderer struct {
	squareSize int
	cellSize   int

	mu    sync.RWMutex
	icons map[iconKey]image.Image
}

type Option func(*Renderer)

// WithSquareSize sets the chess square edge in pixels.
func WithSquareSize(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.squareSize = n
		}
	}
}

// WithCellSize sets the tic-tac-toe cell edge in pixels.
func WithCellSize(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.cellSize = n
		}
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{
		squareSize: 60,
		cellSize:   120,
		icons:      make(map[iconKey]image.Image),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderPNG draws the snapshot's board with its status line underneath.
func (r *Renderer) RenderPNG(ctx context.Context, snap *engine.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		img *image.RGBA
		err error
	)
	switch snap.Variant {
	case engine.Chess:
		img, err = r.drawChess(snap)
	case engine.TicTacToe:
		img, err = r.drawTicTacToe(snap)
	default:
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownVariant, snap.Variant)
	}
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawChess(snap *engine.Snapshot) (*image.RGBA, error) {
	sq := r.squareSize
	boardSize := sq * 8
	origin := image.Point{X: margin, Y: margin}
	img := newCanvas(boardSize+2*margin, boardSize+2*margin+footerHeight)

	for _, s := range chess.AllSquares() {
		clr := lightSquare
		if (s.File+s.Rank)%2 == 0 {
			clr = darkSquare
		}
		imagedraw.Draw(img, squareRect(s, sq, origin), image.NewUniform(clr), image.Point{}, imagedraw.Src)
	}

	if last := snap.LastMove(); last != nil {
		for _, name := range []string{last.From, last.To} {
			if s, err := chess.ParseSquare(name); err == nil {
				imagedraw.Draw(img, squareRect(s, sq, origin), image.NewUniform(lastMoveFill), image.Point{}, imagedraw.Over)
			}
		}
	}

	for name, glyph := range snap.Board {
		s, err := chess.ParseSquare(name)
		if err != nil {
			return nil, err
		}
		p, ok := chess.PieceFromGlyph(glyph)
		if !ok {
			return nil, fmt.Errorf("unknown piece %q on %s", glyph, name)
		}
		icon, err := r.icon(p.String(), sq, func() ([]byte, error) { return pieceSVG(p) })
		if err != nil {
			return nil, err
		}
		imagedraw.Draw(img, squareRect(s, sq, origin), icon, image.Point{}, imagedraw.Over)
	}

	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13, Src: image.NewUniform(coordinateColor)}
	for i := 0; i < 8; i++ {
		file := string(rune('a' + i))
		rank := string(rune('8' - i))
		drawCentered(drawer, file, origin.X+i*sq+sq/2, origin.Y+boardSize+16)
		drawCentered(drawer, rank, margin/2, origin.Y+i*sq+sq/2+5)
	}
	drawCentered(drawer, snap.Message, img.Bounds().Dx()/2, img.Bounds().Dy()-footerHeight/2+2)
	return img, nil
}

func (r *Renderer) drawTicTacToe(snap *engine.Snapshot) (*image.RGBA, error) {
	cs := r.cellSize
	gridSize := cs * 3
	origin := image.Point{X: margin, Y: margin}
	img := newCanvas(gridSize+2*margin, gridSize+2*margin+footerHeight)
	imagedraw.Draw(img, image.Rect(origin.X, origin.Y, origin.X+gridSize, origin.Y+gridSize), image.NewUniform(cellColor), image.Point{}, imagedraw.Src)

	for i := 1; i < 3; i++ {
		v := image.Rect(origin.X+i*cs-2, origin.Y, origin.X+i*cs+2, origin.Y+gridSize)
		h := image.Rect(origin.X, origin.Y+i*cs-2, origin.X+gridSize, origin.Y+i*cs+2)
		imagedraw.Draw(img, v, image.NewUniform(gridColor), image.Point{}, imagedraw.Src)
		imagedraw.Draw(img, h, image.NewUniform(gridColor), image.Point{}, imagedraw.Src)
	}

	board, err := tictactoe.FromCells(snap.Board)
	if err != nil {
		return nil, err
	}

	numbers := &font.Drawer{Dst: img, Face: basicfont.Face7x13, Src: image.NewUniform(cellNumberColor)}
	pad := cs / 8
	for i, mark := range board {
		col, row := i%3, i/3
		cell := image.Rect(origin.X+col*cs, origin.Y+row*cs, origin.X+(col+1)*cs, origin.Y+(row+1)*cs)
		var body, stroke string
		switch mark {
		case tictactoe.X:
			body, stroke = markX, "#b03a2e"
		case tictactoe.O:
			body, stroke = markO, "#1f618d"
		default:
			drawCentered(numbers, tictactoe.CellName(i), cell.Min.X+cs/2, cell.Min.Y+cs/2+5)
			continue
		}
		icon, err := r.icon(string(mark), cs-2*pad, func() ([]byte, error) { return svgDocument(body, "none", stroke), nil })
		if err != nil {
			return nil, err
		}
		dst := image.Rect(cell.Min.X+pad, cell.Min.Y+pad, cell.Max.X-pad, cell.Max.Y-pad)
		imagedraw.Draw(img, dst, icon, image.Point{}, imagedraw.Over)
	}

	status := &font.Drawer{Dst: img, Face: basicfont.Face7x13, Src: image.NewUniform(coordinateColor)}
	drawCentered(status, snap.Message, img.Bounds().Dx()/2, img.Bounds().Dy()-footerHeight/2+2)
	return img, nil
}

func (r *Renderer) icon(name string, size int, source func() ([]byte, error)) (image.Image, error) {
	key := iconKey{name: name, size: size}

	r.mu.RLock()
	if img, ok := r.icons[key]; ok {
		r.mu.RUnlock()
		return img, nil
	}
	r.mu.RUnlock()

	data, err := source()
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s svg: %w", name, err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	r.mu.Lock()
	r.icons[key] = img
	r.mu.Unlock()
	return img, nil
}

func newCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)
	return img
}

// squareRect maps a square to pixels with rank 8 at the top.
func squareRect(s chess.Square, size int, origin image.Point) image.Rectangle {
	x := origin.X + s.File*size
	y := origin.Y + (7-s.Rank)*size
	return image.Rect(x, y, x+size, y+size)
}

func drawCentered(d *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := d.MeasureString(text).Round()
	d.Dot = fixed.P(centerX-width/2, baseline)
	d.DrawString(text)
}
