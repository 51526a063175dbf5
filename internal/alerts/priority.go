package alerts

import (
	"fmt"
	"strings"
	"time"

	"taskcycle/internal/agenda"
	"taskcycle/internal/config"
)

// ItemPriority represents the priority level of a reminder
type ItemPriority int

const (
	PriorityLow ItemPriority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns a string representation of the priority
func (p ItemPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParsePriority reads a priority name as String writes it. An empty name is
// PriorityLow.
func ParsePriority(name string) (ItemPriority, error) {
	switch strings.ToLower(name) {
	case "", "low":
		return PriorityLow, nil
	case "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	default:
		return PriorityLow, fmt.Errorf("unknown priority: %s", name)
	}
}

// PriorityClassifier ranks reminders by item kind, title keywords and
// how close or overdue the occurrence is
type PriorityClassifier struct {
	highPriorityKeywords     []string
	criticalPriorityKeywords []string
	soon                     time.Duration
}

// NewPriorityClassifier creates a new priority classifier with default rules
func NewPriorityClassifier() *PriorityClassifier {
	return &PriorityClassifier{
		highPriorityKeywords: []string{
			"deadline", "due", "pay", "bill", "renew", "appointment",
			"meeting", "review", "submit",
		},
		criticalPriorityKeywords: []string{
			"urgent", "asap", "emergency", "critical", "overdue",
			"medication", "final notice",
		},
		soon: 2 * time.Hour,
	}
}

// NewConfiguredClassifier returns the default classifier extended with the
// keywords of cfg
func NewConfiguredClassifier(cfg config.NotificationConfig) *PriorityClassifier {
	pc := NewPriorityClassifier()
	for _, keyword := range cfg.HighKeywords {
		pc.AddHighPriorityKeyword(keyword)
	}
	for _, keyword := range cfg.CriticalKeywords {
		pc.AddCriticalPriorityKeyword(keyword)
	}
	return pc
}

// Classify determines the priority of a reminder at time now
func (pc *PriorityClassifier) Classify(request AlertRequest, now time.Time) ItemPriority {
	priority := pc.basePriority(request.Item.Kind)

	title := strings.ToLower(request.Item.Title)
	if containsAny(title, pc.criticalPriorityKeywords) {
		return PriorityCritical
	}
	if containsAny(title, pc.highPriorityKeywords) {
		priority = max(priority, PriorityHigh)
	}

	if request.Important || request.Late {
		priority = max(priority, PriorityHigh)
	}

	// Overdue occurrences are escalated once more.
	if request.Occurrence.Before(now) {
		priority = min(priority+1, PriorityCritical)
	} else if request.Occurrence.Sub(now) <= pc.soon {
		priority = max(priority, PriorityNormal)
	}

	return priority
}

func (pc *PriorityClassifier) basePriority(kind agenda.Kind) ItemPriority {
	switch kind {
	case agenda.KindHabit:
		return PriorityLow
	case agenda.KindReminder:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// FilterByPriority keeps the requests classified at or above minPriority
func (pc *PriorityClassifier) FilterByPriority(requests []AlertRequest, minPriority ItemPriority, now time.Time) []AlertRequest {
	var filtered []AlertRequest
	for _, r := range requests {
		if pc.Classify(r, now) >= minPriority {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// AddHighPriorityKeyword adds a custom high priority keyword
func (pc *PriorityClassifier) AddHighPriorityKeyword(keyword string) {
	pc.highPriorityKeywords = append(pc.highPriorityKeywords, strings.ToLower(keyword))
}

// AddCriticalPriorityKeyword adds a custom critical priority keyword
func (pc *PriorityClassifier) AddCriticalPriorityKeyword(keyword string) {
	pc.criticalPriorityKeywords = append(pc.criticalPriorityKeywords, strings.ToLower(keyword))
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
