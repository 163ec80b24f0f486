package citation

// Stats holds statistics about extracted links.
type Stats struct {
	TotalLinks    int            `json:"total_links"`
	DistinctLaws  int            `json:"distinct_laws"`
	ByGranularity map[string]int `json:"by_granularity"`
	ByLaw         map[int]int    `json:"by_law"`
}

// CalculateStats calculates statistics for a set of links.
func CalculateStats(links []Link) Stats {
	stats := Stats{
		TotalLinks:    len(links),
		ByGranularity: make(map[string]int),
		ByLaw:         make(map[int]int),
	}

	for _, link := range links {
		stats.ByGranularity[string(link.Granularity())]++
		stats.ByLaw[link.LawID]++
	}
	stats.DistinctLaws = len(stats.ByLaw)

	return stats
}
