// Package prompt renders tenant configuration and dialogue history into a
// single completion request. Rendering is pure: same inputs, same prompt.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/nepwoop/leadflow/agent/contract"
	"github.com/nepwoop/leadflow/agent/tenant"
)

//go:embed template/base.txt
var baseRaw string

// Fallbacks for optional setup attributes. Empty strings would render
// ungrammatically, so every gap gets a readable placeholder.
const (
	fallbackAgentName = "Assistant"
	fallbackBusiness  = "the business"
	fallbackAddress   = "Address not provided"
	fallbackOfferings = "General services"
	fallbackHours     = "Hours not provided"
	fallbackGoal      = "Assist the customer and collect their details"
	fallbackSteps     = "Collect necessary information politely"
)

// Render composes the full prompt for one completion call. today is injected
// so callers own the clock; cfg and history are never mutated.
func Render(cfg tenant.Config, history []contract.Turn, today time.Time) string {
	base := strings.NewReplacer(
		"{agent_name}", orElse(cfg.AgentName, fallbackAgentName),
		"{business_name}", orElse(cfg.BusinessName, fallbackBusiness),
		"{business_address}", orElse(cfg.BusinessAddress, fallbackAddress),
		"{offerings}", orElse(cfg.Offerings, fallbackOfferings),
		"{business_hours}", orElse(cfg.BusinessHours, fallbackHours),
		"{goal_type}", orElse(cfg.GoalType, fallbackGoal),
		"{today}", today.Format("2006-01-02"),
		"{steps}", steps(cfg.Fields),
		"{field_list}", fieldList(cfg.Fields),
		"{fields_json}", fieldsJSON(cfg.Fields),
	).Replace(strings.TrimSpace(baseRaw))

	var b strings.Builder
	b.WriteString(base)

	if len(cfg.Services) > 0 {
		b.WriteString("\n\n【Services & Pricing】\n")
		for _, svc := range cfg.Services {
			b.WriteString(serviceLine(svc))
			b.WriteString("\n")
		}
	}

	if len(cfg.ToneAndVibe) > 0 {
		fmt.Fprintf(&b, "\n【Tone & Style】\nKeep every reply %s.\n", strings.Join(cfg.ToneAndVibe, ", "))
	}

	if extra := strings.TrimSpace(cfg.AdditionalPrompt); extra != "" {
		b.WriteString("\n【Additional Instructions】\n")
		b.WriteString(extra)
		b.WriteString("\n")
	}
	if followUps := strings.TrimSpace(cfg.FollowUps); followUps != "" {
		b.WriteString("\n【Follow-ups】\n")
		b.WriteString(followUps)
		b.WriteString("\n")
	}

	b.WriteString("\nConversation history:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", roleLabel(turn.Role), turn.Text)
	}

	b.WriteString("\nPlease respond as the business assistant.\n")
	return b.String()
}

func orElse(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func steps(fields []string) string {
	if len(fields) == 0 {
		return fallbackSteps
	}
	return strings.Join(fields, " → ")
}

func fieldList(fields []string) string {
	if len(fields) == 0 {
		return `["name", "email"]`
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, fmt.Sprintf("%q", f))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func fieldsJSON(fields []string) string {
	if len(fields) == 0 {
		fields = []string{"name", "email"}
	}
	var b strings.Builder
	b.WriteString("{\n")
	for i, f := range fields {
		comma := ","
		if i == len(fields)-1 {
			comma = ""
		}
		fmt.Fprintf(&b, "    %q: \"...\"%s\n", f, comma)
	}
	b.WriteString("}")
	return b.String()
}

func serviceLine(svc tenant.Service) string {
	name := orElse(svc.Name, "Service")
	price := orElse(svc.Price, "0")
	negotiable := strings.TrimSpace(svc.Negotiable)
	if negotiable == "" || negotiable == "0" {
		return fmt.Sprintf("- %s: %s (fixed price, do not negotiate)", name, price)
	}
	return fmt.Sprintf("- %s: %s (negotiable, never settle below %s)", name, price, negotiable)
}

func roleLabel(role contract.Role) string {
	switch role {
	case contract.RoleBot:
		return "Bot"
	default:
		return "User"
	}
}
