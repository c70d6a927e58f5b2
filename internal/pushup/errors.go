package pushup

import "errors"

// ErrNotInitialized is returned by StartDetection before a successful Initialize.
var ErrNotInitialized = errors.New("pushup: engine not initialized")
