package model

import "time"

// Stats is a derived aggregate over the word collection. It is recomputed on
// every mutation and persisted only as a display cache; the collection itself
// stays authoritative.
type Stats struct {
	TotalWords   int        `json:"total_words"`
	DirectWords  int        `json:"direct_words"`
	ContextWords int        `json:"context_words"`
	LastSync     *time.Time `json:"last_sync,omitempty"`
	SyncCount    int        `json:"sync_count"`
}

// ComputeStats rebuilds the count portion of stats from the collection,
// carrying sync history over from the previous snapshot.
func ComputeStats(words []Word, prev Stats) Stats {
	s := Stats{
		LastSync:  prev.LastSync,
		SyncCount: prev.SyncCount,
	}
	for _, w := range words {
		s.TotalWords++
		switch w.Kind {
		case KindContext:
			s.ContextWords++
		default:
			s.DirectWords++
		}
	}
	return s
}

// StorageUsage reports serialized sizes of the persisted keys. Observability
// only; admission control is word-count based.
type StorageUsage struct {
	TotalBytes    int `json:"total_bytes"`
	WordsBytes    int `json:"words_bytes"`
	SettingsBytes int `json:"settings_bytes"`
}
