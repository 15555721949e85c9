package importer

import (
	"github.com/Janier1992/Negocio-SaaS-sub001/models"
	"github.com/Janier1992/Negocio-SaaS-sub001/store"
)

// BuildIndex folds the snapshot fetch result into a lookup by natural key.
func BuildIndex(existing []store.ExistingRecord) map[string]store.ExistingRecord {
	index := make(map[string]store.ExistingRecord, len(existing))
	for _, record := range existing {
		index[record.Code] = record
	}
	return index
}

// BuildPlan classifies each record against the snapshot index. Matched keys
// become updates (or skips, per policy) carrying the existing internal id;
// everything else becomes an insert scoped to businessID. Updates are not
// gated on a value diff: a matched key always produces an update entry.
func BuildPlan(records []models.Record, index map[string]store.ExistingRecord, policy models.MatchPolicy, businessID string) models.Plan {
	plan := models.Plan{BusinessID: businessID}

	for _, record := range records {
		existing, found := index[record.Code]
		if !found {
			plan.Inserts = append(plan.Inserts, record)
			continue
		}
		if policy == models.SkipOnMatch {
			plan.SkippedKeys = append(plan.SkippedKeys, record.Code)
			continue
		}
		plan.Updates = append(plan.Updates, models.Update{ID: existing.ID, Record: record})
	}
	return plan
}
