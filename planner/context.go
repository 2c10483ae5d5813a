package planner

import "context"

type personaKey struct{}

// ContextWithPersona attaches the resolved persona so downstream tools can
// read it without widening every call signature.
func ContextWithPersona(ctx context.Context, p Persona) context.Context {
	return context.WithValue(ctx, personaKey{}, p)
}

// PersonaFromContext returns the persona attached by ContextWithPersona.
func PersonaFromContext(ctx context.Context) (Persona, bool) {
	p, ok := ctx.Value(personaKey{}).(Persona)
	return p, ok
}
