package app

// Fallbacks used when a Registry is built without explicit session sizing.
const (
	DefaultQueueSize        = 64
	DefaultSubscriberBuffer = 32
	DefaultLogTail          = 50
)
