// Package slug turns human-readable labels into URL-safe public identifiers and keeps
// them unique inside a namespace.
//
// The package has three parts that are used together by every entity that owns a slug:
//
//   - [Make] normalizes arbitrary text into the canonical slug shape.
//   - [Unique] resolves a collision-free slug against the set of slugs already in use.
//   - [Retry] re-runs a resolve-and-persist step when the store reports that a concurrent
//     writer won the race for the same slug.
//
// # Normalization
//
// Make is pure, deterministic and total. It decomposes the input (NFKD), strips combining
// marks, drops everything that is not an ASCII letter, digit, dot, hyphen, underscore or
// space, trims, turns space runs into a single hyphen, collapses repeated hyphens and
// lowercases the result:
//
//	slug.Make("Müller & Sons — Legal!") // "muller-sons-legal"
//	slug.Make("Café résumé")            // "cafe-resume"
//	slug.Make("v1.2_beta build")        // "v1.2_beta-build"
//	slug.Make("日本語")                   // ""
//
// Make(Make(x)) == Make(x) holds for every input. An empty result means the label has no
// usable base; callers supply a fallback (see [Fallback]).
//
// # Uniqueness
//
// Unique appends -2, -3, -4, ... to the normalized base until it finds a value that is not
// in the namespace. Comparison is case-insensitive:
//
//	existing := slug.NewSet("dentist", "Dentist-2")
//	s, err := slug.Unique("Dentist", existing)
//	// s == "dentist-3"
//
// When an entity is renamed, its own slug must not count as a collision:
//
//	s, err := slug.Unique(newName, existing, slug.Exclude(current.Slug))
//
// The search is capped (10 000 attempts by default, see [MaxAttempts]) and fails with
// [ErrCollisionExhausted] beyond the cap.
//
// # Races
//
// Unique works on a snapshot. Two writers can resolve the same value and only one of them
// will pass the store's unique index. Stores report the loser with [ErrTaken], and Retry
// re-reads the namespace and resolves again:
//
//	err := slug.Retry(ctx, slug.DefaultRetryAttempts, func(ctx context.Context) error {
//		existing, err := repo.ListSlugs(ctx)
//		if err != nil {
//			return err
//		}
//		s, err := slug.Unique(name, existing)
//		if err != nil {
//			return err
//		}
//		return repo.Save(ctx, s) // returns slug.ErrTaken on unique violation
//	})
//
// Only ErrTaken is retried. Every other error is returned as is.
package slug
