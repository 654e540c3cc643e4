// Package service holds the blog's business rules on top of the repositories.
package service

import (
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/repository"
)

// lookupError maps a repository read error to 404 or a failed DB request.
func lookupError(err error, notFound string) error {
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(notFound)
	}
	return models.NewFailedRequestDBError("Failed reading from the DB", err)
}

// writeError wraps a repository write error.
func writeError(err error, message string) error {
	return models.NewFailedRequestDBError(message, err)
}
