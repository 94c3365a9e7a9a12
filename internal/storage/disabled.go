package storage

// Disabled is a KV whose every operation fails, standing in for storage the
// host has turned off.
type Disabled struct{}

// NewDisabled returns a KV that rejects all reads and writes.
func NewDisabled() Disabled {
	return Disabled{}
}

func (Disabled) Get(key string) (string, bool, error) {
	return "", false, newError("disabled", "get", key, errDisabled)
}

func (Disabled) Set(key, value string) error {
	return newError("disabled", "set", key, errDisabled)
}

func (Disabled) Delete(key string) error {
	return newError("disabled", "delete", key, errDisabled)
}

func (Disabled) Close() error {
	return nil
}
