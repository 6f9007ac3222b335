package badger

// NewMemoryStateRepository creates an in-memory state repository for testing.
// Caller must close the backend when done.
func NewMemoryStateRepository() (*StateRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}
	return NewStateRepository(backend), backend, nil
}
