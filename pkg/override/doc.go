// Package override tracks whether an entity's slug is maintained automatically or was set
// explicitly by a caller.
//
// An entity starts in automatic mode: every change of its label re-derives the slug.
// Once a caller supplies a slug value directly the entity switches to manual mode and label
// edits stop touching the slug until the override is cleared, for example by a
// "regenerate from name" action or by switching the entity's identity kind.
//
// [Tracker] is the port services use. [Memory] is an in-process implementation; Postgres
// implementations persist the flag next to the slug so the decision is made inside the
// same transaction that writes the slug.
//
// [Decide] is the single rule shared by every service:
//
//	switch override.Decide(node.ManualSlug, labelChanged) {
//	case override.Regenerate:
//		// normalize + resolve unique, excluding the current slug
//	case override.Keep:
//		// leave the slug alone
//	}
package override
