package chess

import (
	"math/rand/v2"
	"sort"
	"testing"

	notnil "github.com/notnil/chess"
)

// TestAgainstReferenceLibrary plays seeded random games and compares the
// legal move set and the notation of every played move with notnil/chess.
func TestAgainstReferenceLibrary(t *testing.T) {
	seeds := 12
	if testing.Short() {
		seeds = 3
	}
	for seed := 0; seed < seeds; seed++ {
		rng := rand.New(rand.NewPCG(uint64(seed), 7))
		g := NewGame(StartPosition(), "")
		for ply := 0; ply < 160 && !g.Result().Terminal; ply++ {
			fen := g.Position.FEN()
			opt, err := notnil.FEN(fen)
			if err != nil {
				t.Fatalf("seed %d: reference rejected %s: %v", seed, fen, err)
			}
			ref := notnil.NewGame(opt)
			pos := ref.Position()

			refMoves := map[string]*notnil.Move{}
			refList := make([]string, 0)
			for _, m := range ref.ValidMoves() {
				uci := notnil.UCINotation{}.Encode(pos, m)
				refMoves[uci] = m
				refList = append(refList, uci)
			}
			sort.Strings(refList)
			ours := uciList(g.Legal)
			if !equalStrings(ours, refList) {
				t.Fatalf("seed %d ply %d %s:\nours %v\nref  %v", seed, ply, fen, ours, refList)
			}

			m := g.Legal[rng.IntN(len(g.Legal))]
			san := g.Position.san(m, g.Legal)
			if want := (notnil.AlgebraicNotation{}).Encode(pos, refMoves[m.UCI()]); san != want {
				t.Fatalf("seed %d ply %d %s: %s notation %q, reference %q", seed, ply, fen, m, san, want)
			}
			g = g.play(m, san)
		}
	}
}
