package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/easeaico/mnemosyne/internal/config"
	"github.com/easeaico/mnemosyne/internal/repository"
	"github.com/easeaico/mnemosyne/internal/types"
)

// correctionImportance outranks ordinary facts so a correction always wins
// retrieval against the record it replaced.
const correctionImportance = 0.95

// Reconciler applies user corrections to the memory store: it finds the
// contradicted records, retires them and writes a correction memory linked
// to the most recent one.
type Reconciler struct {
	memories *repository.MemoryRepo

	searchLimit  int
	supersedeAll bool
}

// NewReconciler creates a Reconciler.
func NewReconciler(memories *repository.MemoryRepo, cfg config.MemoryConfig) *Reconciler {
	return &Reconciler{
		memories:     memories,
		searchLimit:  cfg.SearchLimit,
		supersedeAll: cfg.SupersedeAll,
	}
}

// Reconcile processes one correction. It returns the written correction
// memory. A correction that matches nothing still writes the corrected
// value as a new memory so it is not lost.
func (r *Reconciler) Reconcile(ctx context.Context, pair types.Pair, message string, extraction types.ExtractionResult, now time.Time) (types.Memory, error) {
	if !extraction.IsCorrection {
		return types.Memory{}, fmt.Errorf("%w: extraction is not a correction", types.ErrInvalidInput)
	}

	candidates, err := r.findCandidates(ctx, pair, message, extraction)
	if err != nil {
		return types.Memory{}, err
	}

	// Corrections render like facts so the context keeps the category.
	content := extraction.CorrectedValue
	switch {
	case content == "":
		content = message
	case extraction.CorrectedCategory != "":
		content = extraction.CorrectedCategory + ": " + content
	}
	confidence := 0.8
	for _, c := range candidates {
		if c.Confidence > confidence {
			confidence = c.Confidence
		}
	}

	correction := types.Memory{
		CharacterID: pair.CharacterID,
		UserID:      pair.UserID,
		Content:     content,
		MemoryType:  types.MemoryTypeCorrection,
		Category:    extraction.CorrectedCategory,
		Importance:  correctionImportance,
		Confidence:  confidence,
		Temporal:    types.TemporalContext{Timestamp: now, DayPart: DayPart(now), Season: Season(now)},
	}

	if len(candidates) == 0 {
		return r.memories.Write(ctx, correction)
	}

	superseded := []string{candidates[0].ID}
	if r.supersedeAll {
		superseded = superseded[:0]
		for _, c := range candidates {
			superseded = append(superseded, c.ID)
		}
	}
	return r.memories.Supersede(ctx, correction, superseded)
}

// findCandidates returns contradicted memories, most recent first. Matching
// prefers the corrected category; without one it falls back to term overlap
// between the correction and stored fact content.
func (r *Reconciler) findCandidates(ctx context.Context, pair types.Pair, message string, extraction types.ExtractionResult) ([]types.Memory, error) {
	var candidates []types.Memory

	if extraction.CorrectedCategory != "" {
		byCategory, err := r.memories.Query(ctx, pair, repository.MemoryFilter{
			Category: extraction.CorrectedCategory,
			Limit:    r.searchLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load correction candidates: %w", err)
		}
		candidates = byCategory
	} else {
		recent, err := r.memories.Recent(ctx, pair, "", r.searchLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load correction candidates: %w", err)
		}
		target := Terms(message)
		if extraction.CorrectedValue != "" {
			for t := range Terms(extraction.CorrectedValue) {
				target[t] = true
			}
		}
		for _, mem := range recent {
			if mem.MemoryType == types.MemoryTypeConversation {
				continue
			}
			if Overlap(target, Terms(mem.Content)) > 0 {
				candidates = append(candidates, mem)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		}
		return candidates[i].ID > candidates[j].ID
	})
	return candidates, nil
}
