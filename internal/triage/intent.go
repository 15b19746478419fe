package triage

import (
	"strings"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// Chat intents.
const (
	IntentPasswordReset        = "password_reset"
	IntentVPNAccess            = "vpn_access"
	IntentSoftwareInstallation = "software_installation"
	IntentHardwareIssue        = "hardware_issue"
	IntentNetworkIssue         = "network_issue"
	IntentEmailIssue           = "email_issue"
	IntentGeneralInquiry       = "general_inquiry"
)

// Intent is the classifier verdict for one chat utterance.
type Intent struct {
	Name     string                `json:"intent"`
	Response string                `json:"response"`
	Category string                `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
}

type intentRule struct {
	matches func(string) bool
	intent  Intent
}

func hasAll(needles ...string) func(string) bool {
	return func(text string) bool {
		for _, needle := range needles {
			if !strings.Contains(text, needle) {
				return false
			}
		}
		return true
	}
}

func hasAny(needles ...string) func(string) bool {
	return func(text string) bool {
		return containsAny(text, needles...)
	}
}

func eitherOf(preds ...func(string) bool) func(string) bool {
	return func(text string) bool {
		for _, pred := range preds {
			if pred(text) {
				return true
			}
		}
		return false
	}
}

func bothOf(a, b func(string) bool) func(string) bool {
	return func(text string) bool { return a(text) && b(text) }
}

// Evaluated top-down on the lower-cased message; first match wins.
var intentRules = []intentRule{
	{
		matches: bothOf(hasAll("password"), hasAny("reset", "forgot", "change")),
		intent: Intent{
			Name:     IntentPasswordReset,
			Category: domain.CategoryAccess,
			Priority: domain.TicketPriorityMedium,
			Response: "I can help you reset your password. Please follow these steps:\n\n" +
				"1. Open the self-service password portal\n" +
				"2. Click 'Forgot Password'\n" +
				"3. Enter your employee ID\n" +
				"4. Check your email for the reset link\n\n" +
				"If you still need help, I can create a ticket for the IT Security Team.",
		},
	},
	{
		matches: eitherOf(hasAll("vpn"), hasAll("remote", "access")),
		intent: Intent{
			Name:     IntentVPNAccess,
			Category: domain.CategoryNetwork,
			Priority: domain.TicketPriorityHigh,
			Response: "For VPN access issues:\n\n" +
				"1. Ensure you have the latest VPN client installed\n" +
				"2. Check your internet connection\n" +
				"3. Verify your credentials\n" +
				"4. Try disconnecting and reconnecting\n\n" +
				"Should I create a ticket for the Network Team?",
		},
	},
	{
		matches: hasAny("install", "software", "application"),
		intent: Intent{
			Name:     IntentSoftwareInstallation,
			Category: domain.CategorySoftware,
			Priority: domain.TicketPriorityLow,
			Response: "For software installation:\n\n" +
				"1. Open the Software Center\n" +
				"2. Search for the application you need\n" +
				"3. Click 'Install' and follow the prompts\n\n" +
				"If the software isn't available or you need special access, I can create a ticket for the Application Team.",
		},
	},
	{
		matches: hasAny("hardware", "laptop", "desktop", "monitor", "keyboard", "mouse"),
		intent: Intent{
			Name:     IntentHardwareIssue,
			Category: domain.CategoryHardware,
			Priority: domain.TicketPriorityMedium,
			Response: "I understand you're experiencing a hardware issue. To help you better, please provide:\n\n" +
				"- Device type (laptop/desktop/peripheral)\n" +
				"- Asset ID (if available)\n" +
				"- Description of the problem\n\n" +
				"I'll create a ticket for the Infrastructure Team to assist you.",
		},
	},
	{
		matches: hasAny("network", "internet", "connection", "wifi"),
		intent: Intent{
			Name:     IntentNetworkIssue,
			Category: domain.CategoryNetwork,
			Priority: domain.TicketPriorityHigh,
			Response: "For network connectivity issues:\n\n" +
				"1. Check if your ethernet cable is connected\n" +
				"2. Try restarting your router\n" +
				"3. Forget and reconnect to WiFi\n" +
				"4. Run network diagnostics\n\n" +
				"If the issue persists, I'll create a ticket for the Network Team.",
		},
	},
	{
		matches: hasAny("email", "outlook", "mail"),
		intent: Intent{
			Name:     IntentEmailIssue,
			Category: domain.CategoryEmail,
			Priority: domain.TicketPriorityMedium,
			Response: "For email issues:\n\n" +
				"1. Check your internet connection\n" +
				"2. Restart Outlook\n" +
				"3. Clear cache and cookies\n" +
				"4. Verify your mailbox isn't full\n\n" +
				"I can create a ticket for the Communication Team if needed.",
		},
	},
}

var generalInquiry = Intent{
	Name:     IntentGeneralInquiry,
	Category: domain.CategoryOther,
	Priority: domain.TicketPriorityMedium,
	Response: "I'm here to help with IT support. I can assist with:\n\n" +
		"- Password resets\n" +
		"- VPN access\n" +
		"- Software installation\n" +
		"- Hardware issues\n" +
		"- Network connectivity\n" +
		"- Email problems\n\n" +
		"Please describe your issue, and I'll either provide immediate help or create a ticket for the appropriate team.",
}

var selfServiceIntents = map[string]struct{}{
	IntentPasswordReset:        {},
	IntentVPNAccess:            {},
	IntentSoftwareInstallation: {},
}

// ClassifyIntent maps a chat message to an intent and canned reply.
func ClassifyIntent(message string) Intent {
	lower := strings.ToLower(message)
	for _, rule := range intentRules {
		if rule.matches(lower) {
			return rule.intent
		}
	}
	return generalInquiry
}

// IsSelfServiceable reports whether the user can resolve the intent without
// a ticket.
func IsSelfServiceable(intent string) bool {
	_, ok := selfServiceIntents[intent]
	return ok
}
