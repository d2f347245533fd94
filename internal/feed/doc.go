// Package feed provides podcast RSS feed retrieval and the in-memory episode
// cache behind the feed listing tools. The most recently fetched feed is held
// in a single slot guarded by a mutex and replaced wholesale on each fetch.
package feed
