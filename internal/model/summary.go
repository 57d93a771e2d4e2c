package model

// Summary holds the compact statistical reduction of a session set. It is
// produced per request and never persisted; only its fingerprint and the
// generated text survive in the cache.
type Summary struct {
	TotalSessions   int
	TotalHours      float64
	AvgSessionMins  float64
	Activities      map[string]*ActivityStats
	// DescriptionDensity is the share of sessions carrying a note, in [0,1].
	DescriptionDensity float64
	TopActivities      []ActivityHours
	Trends             *Trends
}

// ActivityStats holds per-activity aggregates.
type ActivityStats struct {
	SessionCount int
	TotalHours   float64
	AvgMins      float64
	// SampleDescriptions keeps up to three unique non-empty notes in
	// encounter order, bounding what is sent downstream regardless of how
	// many raw sessions exist.
	SampleDescriptions []string
}

// ActivityHours pairs an activity with its total hours for ranking.
type ActivityHours struct {
	Activity string
	Hours    float64
}

// Trends compares the current window against the preceding one.
type Trends struct {
	SessionCountChange int
	HoursChange        float64
	// PercentageChange is the relative change in total duration. A previous
	// total of zero is reported as +100 rather than dividing by zero.
	PercentageChange float64
}
