// Package profile manages directory profiles and their public slugs.
//
// A profile is either a business or an individual. Its label, the name the slug is derived
// from, is the business name for businesses and the personal name for individuals, each
// falling back to the other name when blank. Profile slugs share one namespace and are
// unique ignoring case.
//
//	svc := profile.NewService(repo, profile.WithLogger(log))
//
//	p, _ := svc.Create(ctx, profile.CreateInput{Kind: profile.Business, BusinessName: "Acme Corp"})
//	// p.Slug == "acme-corp"
//
//	p, _ = svc.SetSlug(ctx, p.ID, "acme-legal")          // frozen from now on
//	p, _ = svc.UpdateLabel(ctx, p.ID, profile.LabelInput{BusinessName: "Acme Corp LLC"})
//	// p.Slug == "acme-legal"
//
//	p, _ = svc.RegenerateSlug(ctx, p.ID)                 // back to "acme-corp-llc"
//
// Changing the kind changes the label, so ChangeKind clears the override and derives a new
// slug. CheckSlug answers availability questions without writing anything, and Backfill
// assigns slugs to rows created before slugs existed.
//
// Storage is reached through Repository. NewMemory provides an in-process implementation
// for tests and tools; the Postgres implementation lives in internal/repository.
package profile
