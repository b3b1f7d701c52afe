// Package library holds the client's state: the single [Session], the catalog cache
// and the collection membership index, all owned by a [Store].
//
// The store is the only place this state lives. Renderers read [Snapshot] values;
// [Catalog] and [Membership] replace cached aggregates wholesale after each successful
// fetch. The favorite toggle is the single optimistic write: [Store.FlipFavorite] marks
// the entry speculative until the next authoritative [Store.ReplaceFavorites].
package library
