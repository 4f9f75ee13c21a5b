// Package musicbrainz fetches release track listings from the MusicBrainz web
// service and front covers from the Cover Art Archive.
//
// Requests to MusicBrainz are paced to one per configured interval, which is
// what the service's rate policy asks of anonymous clients; a rejected or
// failed request is reported, never retried. Every request carries the
// configured User-Agent, since MusicBrainz refuses clients without one.
package musicbrainz
