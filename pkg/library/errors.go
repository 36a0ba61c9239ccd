package library

import (
	liberrors "github.com/codebender/eratosthenes/pkg/errors"
)

func errLibraryNotFound(name string) error {
	return liberrors.New(liberrors.ErrCodeLibraryNotFound, "No Library named %s found.", name)
}

func errVersionNotFound(name, version string) error {
	return liberrors.New(liberrors.ErrCodeVersionNotFound,
		"No files for Library named `%s` with version `%s` found.", name, version)
}

func errVersionRequired(name string) error {
	return liberrors.New(liberrors.ErrCodeInvalidVersion,
		"A version is required for external Library named `%s`.", name)
}
