package storage

import (
	"cmp"
	"slices"

	"github.com/dmitrijs2005/waitlist/internal/server/models"
)

func sortByCreated(entries []*models.WaitlistEmail) {
	slices.SortFunc(entries, func(a, b *models.WaitlistEmail) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
