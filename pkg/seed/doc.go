// Package seed loads a category tree from YAML and inserts it through the
// taxonomy graph, so seeded data passes the same slug and hierarchy checks as
// API writes.
//
//	categories:
//	  - name: Home Services
//	    children:
//	      - name: Plumbing
//	      - name: Electrical
//	        slug: electricians
//	  - name: Archived
//	    visible: false
//
// Applying a file twice is safe: categories that already exist under the same
// parent are reused.
package seed
