// Package triage derives sentiment, category, priority, entities and chat
// intent from free text. Every function here is pure and total.
package triage

import (
	"regexp"
	"strings"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// Analysis is the structured signal extracted from an email or form.
type Analysis struct {
	Sentiment float64               `json:"sentiment"`
	Category  string                `json:"category"`
	Priority  domain.TicketPriority `json:"priority"`
	Entities  []string              `json:"entities"`
}

const (
	urgentDelta = -0.15
	calmDelta   = 0.10
)

type sentimentGroup struct {
	delta    float64
	keywords []string
}

var sentimentGroups = []sentimentGroup{
	{delta: urgentDelta, keywords: []string{"urgent", "critical", "emergency", "asap", "immediately", "frustrated", "angry", "broken", "down", "not working"}},
	{delta: calmDelta, keywords: []string{"please", "thank", "kindly", "appreciate", "help", "question"}},
}

type categoryRule struct {
	category string
	keywords []string
}

// Declaration order breaks ties.
var categoryRules = []categoryRule{
	{domain.CategoryHardware, []string{"laptop", "desktop", "printer", "monitor", "keyboard", "mouse", "hardware", "device"}},
	{domain.CategoryNetwork, []string{"vpn", "wifi", "internet", "connection", "network", "ethernet", "router"}},
	{domain.CategoryAccess, []string{"password", "login", "permissions", "account", "access", "reset", "locked"}},
	{domain.CategorySoftware, []string{"software", "application", "install", "update", "license", "app", "program"}},
	{domain.CategoryEmail, []string{"email", "outlook", "teams", "communication", "mail", "calendar"}},
}

// Categories lists every category Analyze can return.
var Categories = []string{
	domain.CategoryHardware,
	domain.CategoryNetwork,
	domain.CategoryAccess,
	domain.CategorySoftware,
	domain.CategoryEmail,
	domain.CategoryOther,
}

type priorityInput struct {
	subject   string
	sentiment float64
	category  string
}

type priorityRule struct {
	name     string
	matches  func(priorityInput) bool
	priority domain.TicketPriority
}

// First match wins.
var priorityRules = []priorityRule{
	{
		name: "subject_escalation",
		matches: func(in priorityInput) bool {
			return containsAny(in.subject, "critical", "emergency", "urgent")
		},
		priority: domain.TicketPriorityCritical,
	},
	{
		name:     "very_negative",
		matches:  func(in priorityInput) bool { return in.sentiment < -0.3 },
		priority: domain.TicketPriorityHigh,
	},
	{
		name: "sensitive_category",
		matches: func(in priorityInput) bool {
			return in.category == domain.CategoryNetwork || in.category == domain.CategoryAccess
		},
		priority: domain.TicketPriorityHigh,
	},
	{
		name:     "negative",
		matches:  func(in priorityInput) bool { return in.sentiment < 0 },
		priority: domain.TicketPriorityMedium,
	},
	{
		name:     "default",
		matches:  func(priorityInput) bool { return true },
		priority: domain.TicketPriorityLow,
	},
}

var entityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)EMP\d{5}`),
	regexp.MustCompile(`(?i)AST-\d{5}`),
	regexp.MustCompile(`(?i)ERR-\d{3}`),
}

// FallbackAnalysis is returned when analysis cannot complete.
func FallbackAnalysis() Analysis {
	return Analysis{
		Sentiment: 0,
		Category:  domain.CategoryOther,
		Priority:  domain.TicketPriorityMedium,
		Entities:  []string{},
	}
}

// inspect runs before analysis; tests replace it to inject faults.
var inspect = func(subject, body string) {}

// Analyze triages a subject and body. It never fails; an internal fault
// yields FallbackAnalysis so intake can still create a ticket.
func Analyze(subject, body string) (result Analysis) {
	defer func() {
		if r := recover(); r != nil {
			result = FallbackAnalysis()
		}
	}()

	inspect(subject, body)
	text := subject + " " + body
	sentiment := Sentiment(text)
	category := Category(subject, body)
	return Analysis{
		Sentiment: sentiment,
		Category:  category,
		Priority:  Priority(sentiment, category, subject),
		Entities:  Entities(body),
	}
}

// Sentiment scores text in [-1, 1]. Each distinct keyword applies its
// group's delta once regardless of how often it occurs.
func Sentiment(text string) float64 {
	lower := strings.ToLower(text)
	score := 0.0
	for _, group := range sentimentGroups {
		for _, keyword := range group.keywords {
			if strings.Contains(lower, keyword) {
				score += group.delta
			}
		}
	}
	return clamp(score, -1, 1)
}

// Category returns the category with the most distinct keyword hits.
func Category(subject, body string) string {
	text := strings.ToLower(subject + " " + body)
	best := domain.CategoryOther
	bestCount := 0
	for _, rule := range categoryRules {
		count := 0
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				count++
			}
		}
		if count > bestCount {
			best = rule.category
			bestCount = count
		}
	}
	return best
}

// Priority evaluates the priority cascade.
func Priority(sentiment float64, category, subject string) domain.TicketPriority {
	in := priorityInput{
		subject:   strings.ToLower(subject),
		sentiment: sentiment,
		category:  category,
	}
	for _, rule := range priorityRules {
		if rule.matches(in) {
			return rule.priority
		}
	}
	return domain.TicketPriorityLow
}

// Entities extracts employee ids, asset ids and error codes, pattern by
// pattern, keeping duplicates.
func Entities(text string) []string {
	entities := []string{}
	for _, pattern := range entityPatterns {
		entities = append(entities, pattern.FindAllString(text, -1)...)
	}
	return entities
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
