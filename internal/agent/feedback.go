package agent

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FeedbackEntry is one logged query/response pair with an optional rating.
type FeedbackEntry struct {
	Timestamp string `json:"timestamp"`
	Query     string `json:"query"`
	Response  string `json:"response"`
	Rating    *int   `json:"rating"`
}

// FeedbackStats summarizes the feedback log.
type FeedbackStats struct {
	TotalQueries  int
	RatedQueries  int
	AverageRating float64 // meaningful only when RatedQueries > 0
}

// FeedbackCollector appends query/response/rating records to a JSON-lines
// log file.
type FeedbackCollector struct {
	path string
}

// NewFeedbackCollector creates a collector writing to path, creating parent
// directories as needed.
func NewFeedbackCollector(path string) (*FeedbackCollector, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("agent: creating feedback log directory: %w", err)
		}
	}
	return &FeedbackCollector{path: path}, nil
}

// Log appends one feedback record. rating may be nil when the user gave
// none.
func (f *FeedbackCollector) Log(query, response string, rating *int) error {
	entry := FeedbackEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Query:     query,
		Response:  response,
		Rating:    rating,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("agent: encoding feedback: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("agent: opening feedback log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("agent: writing feedback: %w", err)
	}
	return nil
}

// Stats reads the log back and summarizes it. A missing log file counts as
// zero entries.
func (f *FeedbackCollector) Stats() (FeedbackStats, error) {
	var stats FeedbackStats

	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("agent: opening feedback log: %w", err)
	}
	defer file.Close()

	var totalRating int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry FeedbackEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue // tolerate partial trailing writes
		}
		stats.TotalQueries++
		if entry.Rating != nil {
			stats.RatedQueries++
			totalRating += *entry.Rating
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("agent: reading feedback log: %w", err)
	}

	if stats.RatedQueries > 0 {
		stats.AverageRating = float64(totalRating) / float64(stats.RatedQueries)
	}
	return stats, nil
}
