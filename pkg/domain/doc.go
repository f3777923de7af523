// Package domain contains the view-models decoded from the JSONPlaceholder API:
// users with their company, posts and comments. Values are transient: they are
// fetched for one render cycle and never mutated afterwards.
package domain
