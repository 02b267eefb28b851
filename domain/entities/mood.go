package entities

import (
	"time"
)

// MoodEntry records an emotion observed at a point in time
type MoodEntry struct {
	Emotion   Emotion   `json:"emotion" bson:"emotion"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

var moodValues = map[Emotion]float64{
	EmotionHappy:    5,
	EmotionNeutral:  3,
	EmotionSad:      1,
	EmotionAnxious:  2,
	EmotionStressed: 2,
	EmotionAngry:    1,
}

var moodEmojis = map[Emotion]string{
	EmotionHappy:    "😊",
	EmotionNeutral:  "😐",
	EmotionSad:      "😢",
	EmotionAnxious:  "😰",
	EmotionStressed: "😓",
	EmotionAngry:    "😠",
}

// MoodValue maps an emotion onto the 1..5 chart scale
func MoodValue(e Emotion) float64 {
	if v, ok := moodValues[e]; ok {
		return v
	}
	return moodValues[EmotionNeutral]
}

// MoodEmoji returns the display glyph for an emotion
func MoodEmoji(e Emotion) string {
	if v, ok := moodEmojis[e]; ok {
		return v
	}
	return moodEmojis[EmotionNeutral]
}

// MoodLabel turns a chart value into words
func MoodLabel(value float64) string {
	switch {
	case value >= 4.5:
		return "Happy"
	case value >= 3.5:
		return "Good"
	case value >= 2.5:
		return "Neutral"
	case value >= 1.5:
		return "Low"
	default:
		return "Very Low"
	}
}

// DailyMood is the average mood for one calendar day
type DailyMood struct {
	Date    string   `json:"date"`
	Average *float64 `json:"average"`
	Label   string   `json:"label,omitempty"`
}

// MoodSummary is what the mood tracker shows
type MoodSummary struct {
	Current       Emotion     `json:"current"`
	CurrentEmoji  string      `json:"current_emoji"`
	Daily         []DailyMood `json:"daily"`
	RecentChanges []MoodEntry `json:"recent_changes"`
}

const (
	moodWindowDays   = 7
	moodRecentLength = 5
)

// SummarizeMoods builds the seven day chart ending on now's calendar day.
// Days are bucketed in now's location. A day without entries has a nil average.
func SummarizeMoods(moods []MoodEntry, now time.Time) MoodSummary {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	daily := make([]DailyMood, 0, moodWindowDays)
	for i := moodWindowDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		next := day.AddDate(0, 0, 1)

		var sum float64
		var count int
		for _, m := range moods {
			ts := m.Timestamp.In(loc)
			if !ts.Before(day) && ts.Before(next) {
				sum += MoodValue(m.Emotion)
				count++
			}
		}

		entry := DailyMood{Date: day.Format("Jan 02")}
		if count > 0 {
			avg := sum / float64(count)
			entry.Average = &avg
			entry.Label = MoodLabel(avg)
		}
		daily = append(daily, entry)
	}

	current := EmotionNeutral
	if len(moods) > 0 {
		current = moods[len(moods)-1].Emotion
	}

	recent := make([]MoodEntry, 0, moodRecentLength)
	for i := len(moods) - 1; i >= 0 && len(recent) < moodRecentLength; i-- {
		recent = append(recent, moods[i])
	}

	return MoodSummary{
		Current:       current,
		CurrentEmoji:  MoodEmoji(current),
		Daily:         daily,
		RecentChanges: recent,
	}
}
