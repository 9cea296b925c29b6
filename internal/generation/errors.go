package generation

import "errors"

var (
	// ErrUpstreamExhausted means every model in the fallback chain failed.
	ErrUpstreamExhausted = errors.New("upstream exhausted")
	// ErrPriorArtifactMissing means the markup of the version being edited is not in the cache.
	ErrPriorArtifactMissing = errors.New("prior artifact missing")
	// ErrInvalidOutput means the model answered without a usable html_code field.
	ErrInvalidOutput = errors.New("model output missing html_code")
	// ErrArtifactWrite means the generated markup could not be written to storage.
	ErrArtifactWrite = errors.New("artifact write failed")
)
