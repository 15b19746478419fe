package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

func TestAnalyze_UrgentVPNSubject(t *testing.T) {
	got := Analyze("URGENT: VPN not working", "")

	assert.Equal(t, domain.CategoryNetwork, got.Category)
	assert.Equal(t, domain.TicketPriorityCritical, got.Priority)
	assert.InDelta(t, -0.3, got.Sentiment, 1e-9)
	assert.Empty(t, got.Entities)
}

func TestSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"neutral", "my screen flickers", 0},
		{"single urgent", "this is urgent", -0.15},
		{"single calm", "a quick question", 0.10},
		{"keyword counted once", "thank you, thank you, thanks", 0.10},
		{"mixed", "please fix asap", -0.05},
		{"case insensitive", "PLEASE HELP", 0.20},
		{"clamped low", "urgent critical emergency asap immediately frustrated angry broken down not working", -1},
		{"all calm", "please thank kindly appreciate help question", 0.60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Sentiment(tt.text), 1e-9)
		})
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    string
	}{
		{"no keywords", "hello", "nothing to see", domain.CategoryOther},
		{"hardware", "printer jam", "", domain.CategoryHardware},
		{"tie keeps earliest", "printer", "vpn", domain.CategoryHardware},
		{"distinct keywords beat repeats", "mouse mouse mouse", "vpn over wifi", domain.CategoryNetwork},
		{"access", "Locked out", "cannot login to my account", domain.CategoryAccess},
		{"email", "Outlook calendar", "", domain.CategoryEmail},
		{"software", "license renewal", "please install the update", domain.CategorySoftware},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Category(tt.subject, tt.body))
		})
	}
}

func TestPriority(t *testing.T) {
	tests := []struct {
		name      string
		sentiment float64
		category  string
		subject   string
		want      domain.TicketPriority
	}{
		{"subject escalation overrides", 0.5, domain.CategoryOther, "Emergency: printer", domain.TicketPriorityCritical},
		{"very negative", -0.45, domain.CategoryHardware, "printer", domain.TicketPriorityHigh},
		{"exactly -0.3 is not very negative", -0.3, domain.CategoryHardware, "printer", domain.TicketPriorityMedium},
		{"network is high", 0.2, domain.CategoryNetwork, "wifi", domain.TicketPriorityHigh},
		{"access is high", 0, domain.CategoryAccess, "login", domain.TicketPriorityHigh},
		{"slightly negative", -0.15, domain.CategorySoftware, "install", domain.TicketPriorityMedium},
		{"calm", 0.1, domain.CategoryEmail, "outlook", domain.TicketPriorityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Priority(tt.sentiment, tt.category, tt.subject))
		})
	}
}

func TestEntities(t *testing.T) {
	body := "EMP12345 saw ERR-500 on AST-00001, emp54321 too. ERR-500 again. EMP123 is short."

	assert.Equal(t,
		[]string{"EMP12345", "emp54321", "AST-00001", "ERR-500", "ERR-500"},
		Entities(body))
	assert.Equal(t, []string{}, Entities("nothing here"))
}

func TestAnalyze_Invariants(t *testing.T) {
	inputs := [][2]string{
		{"", ""},
		{"URGENT", "everything is down and broken, frustrated and angry"},
		{"Thanks", "please kindly help, I appreciate it, quick question"},
		{"printer vpn password software email", "EMP00001"},
		{"🙂", "\x00\xff"},
	}
	valid := map[domain.TicketPriority]bool{
		domain.TicketPriorityLow:      true,
		domain.TicketPriorityMedium:   true,
		domain.TicketPriorityHigh:     true,
		domain.TicketPriorityCritical: true,
	}
	for _, in := range inputs {
		got := Analyze(in[0], in[1])
		assert.GreaterOrEqual(t, got.Sentiment, -1.0)
		assert.LessOrEqual(t, got.Sentiment, 1.0)
		assert.True(t, valid[got.Priority], "priority %q", got.Priority)
		assert.Contains(t, Categories, got.Category)
		assert.NotNil(t, got.Entities)

		assert.Equal(t, got, Analyze(in[0], in[1]), "analysis must be deterministic")
	}
}

func TestFallbackAnalysis(t *testing.T) {
	got := FallbackAnalysis()

	assert.Equal(t, 0.0, got.Sentiment)
	assert.Equal(t, domain.CategoryOther, got.Category)
	assert.Equal(t, domain.TicketPriorityMedium, got.Priority)
	assert.Empty(t, got.Entities)
}

func TestAnalyze_FaultYieldsFallback(t *testing.T) {
	original := inspect
	inspect = func(string, string) { panic("lexicon unavailable") }
	t.Cleanup(func() { inspect = original })

	var got Analysis
	assert.NotPanics(t, func() {
		got = Analyze("URGENT: VPN not working", "EMP12345 cannot connect")
	})
	assert.Equal(t, FallbackAnalysis(), got)
}
