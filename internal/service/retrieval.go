package service

import (
	"context"
	"crypto/sha1"
	"sort"
	"strings"

	"github.com/twinchat/twinchat/internal/model"
)

// searchScopes lists the knowledge scopes consulted for a user: their own
// plus the shared scope, unless the user is the shared scope itself.
func searchScopes(userID, sharedScopeID string) []string {
	scopes := []string{userID}
	if sharedScopeID != "" && sharedScopeID != userID {
		scopes = append(scopes, sharedScopeID)
	}
	return scopes
}

// findSimilarAcrossScopes retrieves per scope, then merges: entries with the
// same normalized text collapse to the best-scoring copy, the survivors are
// re-ranked by similarity and cut to limit. Personal scopes often hold
// near-duplicates of shared knowledge (the auto-copy at profile creation),
// and plain concatenation would double-count them.
func findSimilarAcrossScopes(ctx context.Context, store KnowledgeSearcher, vector []float32, userID, sharedScopeID string, threshold float64, limit int) ([]model.ScoredEntry, error) {
	var all []model.ScoredEntry
	for _, scope := range searchScopes(userID, sharedScopeID) {
		rows, err := store.FindSimilar(ctx, vector, scope, threshold, limit)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	if len(all) == 0 {
		return nil, nil
	}

	deduped := make(map[string]model.ScoredEntry, len(all))
	order := make([]string, 0, len(all))
	for _, row := range all {
		key := normalizedTextKey(row.Entry.Text)
		existing, ok := deduped[key]
		if !ok {
			order = append(order, key)
			deduped[key] = row
			continue
		}
		if row.Similarity > existing.Similarity {
			deduped[key] = row
		}
	}

	merged := make([]model.ScoredEntry, 0, len(deduped))
	for _, key := range order {
		merged = append(merged, deduped[key])
	}
	// Tie-break on entry id so the ranking does not depend on which scope
	// happened to be queried first.
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		return merged[i].Entry.ID < merged[j].Entry.ID
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func normalizedTextKey(text string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(text)))
	return string(sum[:])
}
