// Package taxonomy maintains the category hierarchy of the directory.
//
// Categories form a forest: each node has at most one parent and no node is its own
// ancestor. [Graph] is the only writer. It checks every structural change before
// committing it and keeps category slugs unique with the [slug] package.
//
// # Operations
//
//	g := taxonomy.NewGraph(repo, taxonomy.WithLogger(log))
//
//	law, _ := g.Insert(ctx, taxonomy.InsertInput{Name: "Law"})
//	tax, _ := g.Insert(ctx, taxonomy.InsertInput{Name: "Tax Law", ParentID: &law.ID})
//
//	err := g.Reparent(ctx, law.ID, &tax.ID) // ErrCycleDetected, nothing changes
//	err = g.Delete(ctx, law.ID)             // ErrChildrenExist
//
// Reparent rejects a node becoming its own parent ([ErrSelfParent]), a missing parent
// ([ErrParentNotFound]) and any parent taken from the node's own subtree
// ([ErrCycleDetected]). Delete never cascades: children ([ErrChildrenExist]) and linked
// entities ([ErrReferencesExist]) must be detached by the caller first.
//
// Rename re-derives the slug from the new name unless the node's slug was set manually
// (see [Graph.SetSlug] and [Graph.RegenerateSlug]).
//
// # Persistence
//
// Graph talks to storage through [Repository]. Each operation is one call to
// [Repository.WithinTx]; a failed operation leaves no partial writes. Structural
// mutations call [Tx.LockHierarchy] before reading edges, so two concurrent moves on
// overlapping subtrees cannot both pass the cycle check. Slug writes that lose a race
// against the store's unique index are retried a bounded number of times.
//
// [Memory] is an in-process Repository with the same constraints as the Postgres schema.
//
// # Traversal
//
// [Descendants], [Ancestors] and [BuildTree] walk the edge set with explicit stacks and
// visited sets. They terminate on any input, including edge sets that already contain a
// cycle.
package taxonomy
