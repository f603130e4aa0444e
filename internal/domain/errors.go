package domain

import "errors"

// Pipeline failure kinds. Callers distinguish them with errors.Is.
var (
	// ErrUpstreamUnavailable means every search sub-query for a request
	// failed. Individual sub-query failures degrade to partial results and
	// are not surfaced.
	ErrUpstreamUnavailable = errors.New("all upstream search queries failed")

	// ErrSynthesisFailed means the generative model call itself errored
	// (network, quota, auth).
	ErrSynthesisFailed = errors.New("synthesis invocation failed")

	// ErrMalformedOutput means the model responded but the output did not
	// parse as the expected schema after fence stripping.
	ErrMalformedOutput = errors.New("malformed synthesis output")
)
