package offline

import (
	"github.com/angelmondragon/solecart/internal/cart"
	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/pkg/enums"
)

// Project applies queued mutations, in order, to a cached line set so an
// offline cart reflects changes the user already made. Lines are matched by
// key first, then by product id.
func Project(lines []cart.Line, pending []remote.Mutation) []cart.Line {
	out := make([]cart.Line, len(lines))
	copy(out, lines)

	for _, m := range pending {
		if m.Kind == enums.MutationClear {
			out = out[:0]
			continue
		}
		idx := findLine(out, m)
		if idx < 0 {
			continue
		}
		switch m.Kind {
		case enums.MutationUpdateQuantity:
			out[idx].Quantity = m.Quantity
		case enums.MutationUpdateVariant:
			out[idx].Size = m.Size
			out[idx].Color = m.Color
		case enums.MutationRemove:
			out = append(out[:idx], out[idx+1:]...)
		}
	}

	kept := out[:0]
	for _, line := range out {
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	return kept
}

func findLine(lines []cart.Line, m remote.Mutation) int {
	if m.LineID != "" {
		for i, line := range lines {
			if line.Key() == m.LineID {
				return i
			}
		}
	}
	if m.ProductID != "" {
		for i, line := range lines {
			if cart.ResolveProductID(line) == m.ProductID {
				return i
			}
		}
	}
	return -1
}
