package protocol

// Records is a batch of byte buffers: encoded updates, state vectors or
// whole sync messages.
type Records [][]byte
