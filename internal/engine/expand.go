package engine

import (
	"github.com/roach88/doerun/internal/doe"
)

// Expand returns the ordered Cartesian product excursions × vignettes.
// Excursions form the outer loop and vignettes the inner loop; each
// combination carries its 0-based position, which later determines run
// numbers.
//
// Returns an EMPTY_SPACE error if either set is empty.
func Expand(excursions, vignettes []string) ([]doe.RunCombination, error) {
	if len(excursions) == 0 || len(vignettes) == 0 {
		return nil, doe.NewEmptySpaceError(len(excursions), len(vignettes))
	}

	combos := make([]doe.RunCombination, 0, len(excursions)*len(vignettes))
	for _, e := range excursions {
		for _, v := range vignettes {
			combos = append(combos, doe.RunCombination{
				Index:     len(combos),
				Excursion: e,
				Vignette:  v,
			})
		}
	}
	return combos, nil
}
