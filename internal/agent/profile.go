package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

type ProfileErrorKind int

const (
	ProfileNotFound ProfileErrorKind = iota
	ProfileParse
)

type ProfileError struct {
	Kind ProfileErrorKind
	Path string
	Err  error
}

func (e *ProfileError) Error() string {
	if e.Kind == ProfileNotFound {
		return fmt.Sprintf("профиль %s не найден: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("профиль %s не читается: %v", e.Path, e.Err)
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

// FileProfileStore читает профиль кандидата из JSON-файла.
type FileProfileStore struct{}

func (FileProfileStore) Read(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ProfileError{Kind: ProfileNotFound, Path: path, Err: err}
		}
		return nil, &ProfileError{Kind: ProfileParse, Path: path, Err: err}
	}

	var profile any
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, &ProfileError{Kind: ProfileParse, Path: path, Err: err}
	}
	return profile, nil
}
