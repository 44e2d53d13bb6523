package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/at-ishikawa/biblia/internal/collection"
)

// PrintUnlocked announces a newly granted collectible.
func PrintUnlocked(w io.Writer, collectible collection.Collectible) {
	_, _ = color.New(color.FgMagenta, color.Bold).Fprintf(w, "New collectible unlocked: %s\n", collectible.Name)
	_, _ = fmt.Fprintf(w, "  %s\n", collectible.Description)
}

// PrintCards lists the catalog with the unlocked cards marked.
func PrintCards(w io.Writer, cards []collection.Card) {
	unlocked := 0
	locked := color.New(color.Faint)
	for _, card := range cards {
		if card.Unlocked {
			unlocked++
			_, _ = color.New(color.Bold).Fprintf(w, "[x] %s", card.Name)
			_, _ = fmt.Fprintf(w, " (%s) %s\n", card.Chapter, card.Description)
			continue
		}
		_, _ = locked.Fprintf(w, "[ ] ??? (%s)\n", card.Chapter)
	}
	_, _ = fmt.Fprintf(w, "%d/%d unlocked\n", unlocked, len(cards))
}
