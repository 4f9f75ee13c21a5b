// Package releasecache keeps decoded MusicBrainz releases in a local SQLite
// database so repeated runs against the same album skip the network.
//
// Entries expire after the configured TTL. A Source layers the cache in front
// of a musicbrainz.Fetcher; cache failures are logged and never fail a lookup.
package releasecache
