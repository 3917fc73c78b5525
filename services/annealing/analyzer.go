package annealing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	errorlogRepo "denticare/database/repository/errorlog"
	"denticare/models"
	"denticare/services/booking"
	"denticare/utils"
)

// remediations maps each failure kind to a suggested operator action. The
// analyzer only diagnoses; applying a remediation is always a human decision.
var remediations = map[string]string{
	string(booking.KindConflict):     "recurring slot contention; consider offering alternatives earlier or adding capacity at peak times",
	string(booking.KindNotFound):     "callers reference codes or sessions that do not exist; review confirmation code delivery and session TTLs",
	string(booking.KindInvalidState): "operations arrive for finished appointments or sessions; tighten upstream state checks",
	string(booking.KindValidation):   "the intent extractor emits malformed fields; review its prompt and the field schema",
	string(booking.KindUpstream):     "the AI or transport collaborator is failing; check quotas, credentials and timeouts",
	string(booking.KindStorage):      "persistence errors; check database connectivity and index health",
}

// Analyzer clusters logged failures into ranked improvement suggestions.
type Analyzer struct {
	Repo errorlogRepo.ErrorLogRepository
	// MinOccurrences is the cluster size below which a failure pattern is
	// considered noise.
	MinOccurrences int
	// Window bounds how far back an analysis run looks.
	Window time.Duration
	Now    func() time.Time

	mu        sync.Mutex
	lastRunAt time.Time
}

func NewAnalyzer(repo errorlogRepo.ErrorLogRepository, minOccurrences int, window time.Duration) *Analyzer {
	if minOccurrences < 1 {
		minOccurrences = 1
	}
	return &Analyzer{Repo: repo, MinOccurrences: minOccurrences, Window: window, Now: time.Now}
}

// Analyze runs over the analyzer's configured window.
func (a *Analyzer) Analyze(ctx context.Context) ([]models.ImprovementSuggestion, error) {
	return a.AnalyzeWindow(ctx, a.Window)
}

// AnalyzeWindow groups the window's events by (kind, op), drops clusters
// below the occurrence threshold and returns suggestions ordered by count
// descending, then kind and op ascending. The ordering is total, so two runs
// over the same log produce identical output.
func (a *Analyzer) AnalyzeWindow(ctx context.Context, window time.Duration) ([]models.ImprovementSuggestion, error) {
	now := a.Now()
	events, err := a.Repo.Window(ctx, now.Add(-window), now)
	if err != nil {
		return nil, fmt.Errorf("failed to read error window: %w", err)
	}

	type clusterKey struct{ kind, op string }
	type cluster struct {
		count  int
		sample models.ErrorEvent
	}
	clusters := make(map[clusterKey]*cluster)
	for _, event := range events {
		key := clusterKey{kind: event.Kind, op: event.Op}
		c, ok := clusters[key]
		if !ok {
			clusters[key] = &cluster{count: 1, sample: event}
			continue
		}
		c.count++
		c.sample = event // keep the most recent sample
	}

	var suggestions []models.ImprovementSuggestion
	for key, c := range clusters {
		if c.count < a.MinOccurrences {
			continue
		}
		remediation, ok := remediations[key.kind]
		if !ok {
			remediation = "unclassified failure kind; inspect the sample context"
		}
		suggestions = append(suggestions, models.ImprovementSuggestion{
			Kind:          key.kind,
			Op:            key.op,
			Count:         c.count,
			Pattern:       fmt.Sprintf("%d %s failures in %s over the last %s", c.count, key.kind, key.op, window),
			Remediation:   remediation,
			SampleContext: c.sample.Context,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Count != suggestions[j].Count {
			return suggestions[i].Count > suggestions[j].Count
		}
		if suggestions[i].Kind != suggestions[j].Kind {
			return suggestions[i].Kind < suggestions[j].Kind
		}
		return suggestions[i].Op < suggestions[j].Op
	})

	a.mu.Lock()
	a.lastRunAt = now
	a.mu.Unlock()

	utils.GetLogger().Info("annealing analysis complete",
		zap.Int("events", len(events)),
		zap.Int("suggestions", len(suggestions)))
	return suggestions, nil
}

// LastRunAt returns when Analyze last completed, zero if it never ran.
func (a *Analyzer) LastRunAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastRunAt
}
