package fs

// FileSystem is the whole-file I/O the repository needs. Every call is atomic
// from the caller's point of view: Write either replaces the file or leaves the
// previous content in place.
type FileSystem interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
	Delete(path string) error
	// List returns the prompt files below dir, recursively.
	List(dir string) ([]string, error)
}
