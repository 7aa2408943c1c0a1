// Package cache provides a small read-through cache for data that is expensive to build
// and cheap to throw away, such as the rendered category tree.
//
// A Store holds values: Memory keeps them in the process, Redis shares them between
// processes. Loader sits in front of a Store, collapses concurrent misses for one key into
// a single load with singleflight, and drops results that raced with an invalidation:
//
//	trees := cache.NewLoader[[]*taxonomy.TreeNode](cache.NewMemory[[]*taxonomy.TreeNode](), time.Minute)
//
//	tree, err := trees.Get(ctx, "categories:tree", func(ctx context.Context) ([]*taxonomy.TreeNode, error) {
//		return graph.Tree(ctx)
//	})
//
//	// after any change to the hierarchy
//	_ = trees.Invalidate(ctx, "categories:tree")
//
// Store failures never fail a read: the loader logs them and falls back to load.
// Nothing that enforces an integrity rule should read through this package.
package cache
