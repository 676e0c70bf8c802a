package render

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/boardgames/game/chess"
)

// Silhouettes are drawn on a 45x45 viewBox. FILL and STROKE are substituted
// per color.
var pieceShapes = map[chess.Kind]string{
	chess.Pawn: `<circle cx="22.5" cy="15" r="5" fill="FILL" stroke="STROKE" stroke-width="1.5"/>
<path d="M15 36 L30 36 L27 22 L18 22 Z" fill="FILL" stroke="STROKE" stroke-width="1.5" stroke-linejoin="round"/>
<rect x="12" y="35" width="21" height="4" fill="FILL" stroke="STROKE" stroke-width="1.5"/>`,
	chess.Knight: `<path d="M13 39 L34 39 C34 30 32 20 28 14 L24 9 L22 13 C17 15 12 21 11 25 L14 27 L19 23 C20 27 16 31 14 34 Z" fill="FILL" stroke="STROKE" stroke-width="1.5" stroke-linejoin="round"/>`,
	chess.Bishop: `<circle cx="22.5" cy="9" r="3" fill="FILL" stroke="STROKE" stroke-width="1.5"/>
<ellipse cx="22.5" cy="22" rx="7" ry="10" fill="FILL" stroke="STROKE" stroke-width="1.5"/>
<rect x="12" y="33" width="21" height="6" fill="FILL" stroke="STROKE" stroke-width="1.5"/>`,
	chess.Rook: `<path d="M11 39 L34 39 L34 35 L31 35 L31 19 L34 19 L34 11 L30 11 L30 14 L26 14 L26 11 L19 11 L19 14 L15 14 L15 11 L11 11 L11 19 L14 19 L14 35 L11 35 Z" fill="FILL" stroke="STROKE" stroke-width="1.5" stroke-linejoin="round"/>`,
	chess.Queen: `<path d="M9 14 L14 33 L31 33 L36 14 L29 24 L26 10 L22.5 23 L19 10 L16 24 Z" fill="FILL" stroke="STROKE" stroke-width="1.5" stroke-linejoin="round"/>
<rect x="12" y="33" width="21" height="6" fill="FILL" stroke="STROKE" stroke-width="1.5"/>`,
	chess.King: `<path d="M21 5 L24 5 L24 9 L28 9 L28 12 L24 12 L24 16 L21 16 L21 12 L17 12 L17 9 L21 9 Z" fill="FILL" stroke="STROKE" stroke-width="1.5"/>
<path d="M12 33 C8 24 14 17 22.5 21 C31 17 37 24 33 33 Z" fill="FILL" stroke="STROKE" stroke-width="1.5" stroke-linejoin="round"/>
<rect x="12" y="33" width="21" height="6" fill="FILL" stroke="STROKE" stroke-width="1.5"/>`,
}

const (
	markX = `<path d="M10 10 L35 35 M35 10 L10 35" fill="none" stroke="STROKE" stroke-width="5" stroke-linecap="round"/>`
	markO = `<circle cx="22.5" cy="22.5" r="13" fill="none" stroke="STROKE" stroke-width="5"/>`
)

func svgDocument(body, fill, stroke string) []byte {
	body = strings.ReplaceAll(body, "FILL", fill)
	body = strings.ReplaceAll(body, "STROKE", stroke)
	return []byte(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="45" height="45" viewBox="0 0 45 45">%s</svg>`, body))
}

func pieceSVG(p chess.Piece) ([]byte, error) {
	body, ok := pieceShapes[p.Kind]
	if !ok {
		return nil, fmt.Errorf("no silhouette for %s", p)
	}
	if p.Color == chess.White {
		return svgDocument(body, "#fafafa", "#1e1e1e"), nil
	}
	return svgDocument(body, "#262626", "#e6e6e6"), nil
}
