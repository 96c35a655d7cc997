package ingest

import (
	"encoding/json"
	"errors"

	"github.com/lox/hangorburn/internal/models"
)

const (
	FlagOutOfRange    = "out_of_range"
	FlagDuplicateHour = "duplicate_hour"
)

// FilterValid drops hours that fail model validation or do not advance in
// time, and returns one flag per dropped hour.
func FilterValid(series []models.HourlyObservation) ([]models.HourlyObservation, []string) {
	var kept []models.HourlyObservation
	var flags []string

	for _, obs := range series {
		if len(kept) > 0 && !obs.Time.After(kept[len(kept)-1].Time) {
			flags = append(flags, FlagDuplicateHour+": "+obs.Time.Format("2006-01-02T15:04"))
			continue
		}
		if err := models.ValidateHourly(obs); err != nil {
			var ve *models.ValidationError
			if errors.As(err, &ve) && len(ve.Problems) > 0 {
				flags = append(flags, FlagOutOfRange+": "+ve.Problems[0])
			} else {
				flags = append(flags, FlagOutOfRange+": "+err.Error())
			}
			continue
		}
		kept = append(kept, obs)
	}
	return kept, flags
}

// QualityFlagsToJSON encodes flags for the fetch_runs audit log. No flags
// encode as "".
func QualityFlagsToJSON(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	b, _ := json.Marshal(flags)
	return string(b)
}
