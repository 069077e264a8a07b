package server

import (
	"net/http"
	"os"
)

// MediaFiles serves the files below root. Directories answer 404 instead of
// a listing.
func MediaFiles(root string) http.Handler {
	return http.FileServer(filesOnly{http.Dir(root)})
}

type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
