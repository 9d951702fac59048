package utils

import "strings"

func NormalizeFieldName(field string) string {

	field = strings.ToLower(strings.TrimSpace(field))
	field = strings.ReplaceAll(field, " ", "_")
	field = strings.ReplaceAll(field, "-", "_")

	fieldMap := map[string]string{

		"avg_score":    "average_score",
		"averagescore": "average_score",
		"average":      "average_score",
		"mean_score":   "average_score",
		"avgscore":     "average_score",

		"streak":         "current_streak",
		"currentstreak":  "current_streak",
		"current_streak": "current_streak",
		"streak_days":    "current_streak",

		"assignments":           "completed_assignments",
		"completed":             "completed_assignments",
		"completedassignments":  "completed_assignments",
		"assignments_completed": "completed_assignments",

		"totalscore": "total_score",
		"points":     "total_score",
		"total":      "total_score",

		"rank":     "best_rank",
		"bestrank": "best_rank",
		"top_rank": "best_rank",
	}

	if normalized, ok := fieldMap[field]; ok {
		return normalized
	}

	return field
}
