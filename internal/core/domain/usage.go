package domain

import "time"

const ActionReportGenerated = "report_generated"

type UsageEvent struct {
	ID         string
	Action     string
	Domain     string
	Tier       Tier
	Identity   string
	UserAgent  string
	Referrer   string
	OccurredAt time.Time
}
