package recruit

import (
	"fmt"

	"github.com/talentops/hiregraph/pkg/hiregraph/registry"
)

// Persona defines one evaluator's perspective: who it is, what it
// weighs, and whether it may reach for the search tool.
type Persona struct {
	// Role names the persona and becomes the branch ID and the Role
	// field on its evaluations.
	Role string

	// SystemPrompt frames the evaluator's expertise.
	SystemPrompt string

	// Focus is injected into the evaluation prompt to steer what the
	// persona scores on.
	Focus string

	// AllowSearch grants the persona the web search tool during its
	// evaluation loop.
	AllowSearch bool
}

// Default persona roles.
const (
	RoleTechnical = "technical"
	RoleHR        = "hr"
)

// TechnicalPersona evaluates skills, experience depth, and evidence of
// real delivery.
func TechnicalPersona() Persona {
	return Persona{
		Role: RoleTechnical,
		SystemPrompt: "You are a senior engineer assessing a candidate profile " +
			"against a job description. Judge demonstrated skill, not keywords.",
		Focus:       "technical depth, relevant experience, and evidence of shipped work",
		AllowSearch: true,
	}
}

// HRPersona evaluates trajectory, communication, and role fit.
func HRPersona() Persona {
	return Persona{
		Role: RoleHR,
		SystemPrompt: "You are an experienced recruiter assessing a candidate " +
			"profile against a job description. Judge fit, trajectory, and clarity.",
		Focus: "career trajectory, communication quality, and overall role fit",
	}
}

// PersonaRegistry holds named personas for screening workflows.
type PersonaRegistry struct {
	reg *registry.Registry[string, Persona]
}

// NewPersonaRegistry creates a registry pre-loaded with the default
// technical and HR personas.
func NewPersonaRegistry() *PersonaRegistry {
	pr := &PersonaRegistry{reg: registry.New[string, Persona]()}
	pr.Register(TechnicalPersona())
	pr.Register(HRPersona())
	return pr
}

// Register adds or replaces a persona, keyed by its role.
func (pr *PersonaRegistry) Register(p Persona) error {
	if p.Role == "" {
		return fmt.Errorf("persona: role is required")
	}
	pr.reg.Register(p.Role, p)
	return nil
}

// Get returns the persona for a role.
func (pr *PersonaRegistry) Get(role string) (Persona, bool) {
	return pr.reg.Get(role)
}

// Roles returns all registered roles in sorted order.
func (pr *PersonaRegistry) Roles() []string {
	return pr.reg.Keys()
}

// Personas returns all registered personas in sorted role order.
func (pr *PersonaRegistry) Personas() []Persona {
	roles := pr.reg.Keys()
	out := make([]Persona, 0, len(roles))
	for _, role := range roles {
		p, _ := pr.reg.Get(role)
		out = append(out, p)
	}
	return out
}
