package utils

// ResourceSource identifies where parsed data came from. Parsers keep
// it for log and export naming instead of holding the open file.
type ResourceSource interface {
	Name() string
	Size() int64
}
