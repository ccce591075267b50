// Package github reads the issues of a GitHub repository as records.
//
// Each issue becomes one record: the issue number is the record ID, the
// title is the title, the first paragraph of the body is the description,
// and labels become keywords. Pull requests are skipped.
//
// # Authentication
//
// A personal access token is optional. With a token the client gets 5,000
// requests per hour; without one GitHub allows 60, which is enough for
// small public repositories.
//
// # Rate Limiting
//
// Requests are throttled proactively with a token bucket and reactively
// from the X-RateLimit headers GitHub returns. When fewer than MinBuffer
// requests remain, the client waits for the reset time.
package github
