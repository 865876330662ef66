package board

import (
	"strings"
)

var pieceGlyphs = map[rune]string{
	'K': "♚", 'Q': "♛", 'R': "♜", 'B': "♝", 'N': "♞", 'P': "♟",
	'k': "♔", 'q': "♕", 'r': "♖", 'b': "♗", 'n': "♘", 'p': "♙",
}

// Draw renders the position as a diagram. With flip set the board is shown
// from Black's side.
func (b *Board) Draw(flip bool) string {
	placement := strings.Fields(b.FEN())[0]
	var rows [8][8]string
	for r, rank := range strings.Split(placement, "/") {
		f := 0
		for _, ch := range rank {
			if ch >= '1' && ch <= '8' {
				for n := 0; n < int(ch-'0'); n++ {
					rows[r][f] = "."
					f++
				}
				continue
			}
			rows[r][f] = pieceGlyphs[ch]
			f++
		}
	}

	files := "abcdefgh"
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		r := i
		if flip {
			r = 7 - i
		}
		sb.WriteByte(byte('8' - r))
		for j := 0; j < 8; j++ {
			f := j
			if flip {
				f = 7 - j
			}
			sb.WriteByte(' ')
			sb.WriteString(rows[r][f])
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(" ")
	for j := 0; j < 8; j++ {
		f := j
		if flip {
			f = 7 - j
		}
		sb.WriteByte(' ')
		sb.WriteByte(files[f])
	}
	sb.WriteByte('\n')
	return sb.String()
}
