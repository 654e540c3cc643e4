package models

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewValidationError("bad"), fiber.StatusUnprocessableEntity},
		{NewBadRequestError("bad"), fiber.StatusBadRequest},
		{NewUnauthorizedError("who"), fiber.StatusUnauthorized},
		{NewForbiddenError("no"), fiber.StatusForbidden},
		{NewNotFoundError("gone"), fiber.StatusNotFound},
		{NewDataConflictError("clash"), fiber.StatusConflict},
		{NewFailedRequestDBError("db", errors.New("x")), fiber.StatusInternalServerError},
		{NewFailedDeletingDirectoryError("dir", nil), fiber.StatusInternalServerError},
		{NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Status())
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestStatusOf_FiberError(t *testing.T) {
	assert.Equal(t, fiber.StatusMethodNotAllowed, StatusOf(fiber.ErrMethodNotAllowed))
	assert.Equal(t, fiber.StatusInternalServerError, StatusOf(errors.New("plain")))
}

func respond(t *testing.T, status int, err error) ErrorResponse {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, status, err)
	})

	resp, testErr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, testErr)
	require.Equal(t, status, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestRespondWithError_Body(t *testing.T) {
	out := respond(t, fiber.StatusNotFound, NewNotFoundError("Post was not found"))
	assert.Equal(t, fiber.StatusNotFound, out.Status)
	assert.Equal(t, "Post was not found", out.Error)
	assert.Equal(t, CodeNotFound, out.Code)
}

func TestRespondWithError_DefaultMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{fiber.StatusUnauthorized, "Unauthorized"},
		{fiber.StatusForbidden, "Forbidden"},
		{fiber.StatusNotFound, "Not Found"},
		{fiber.StatusUnprocessableEntity, "Invalid argument value"},
		{fiber.StatusTeapot, "Whoops, looks like something went wrong"},
	}

	for _, tt := range tests {
		out := respond(t, tt.status, &AppError{Code: CodeBadRequest})
		assert.Equal(t, tt.want, out.Error)
	}
}

func TestRespondWithError_HidesInternalDetails(t *testing.T) {
	out := respond(t, fiber.StatusInternalServerError, errors.New("pq: password authentication failed"))
	assert.Equal(t, "Whoops, looks like something went wrong", out.Error)
	assert.Equal(t, CodeInternal, out.Code)
}

func TestRespondWithError_ServerFailuresShareInternalCode(t *testing.T) {
	cause := errors.New("disk full")
	for _, err := range []*AppError{
		NewFailedRequestDBError("Failed saving the post", cause),
		NewFailedDeletingFileError("Failed deleting an image file", cause),
		NewFailedDeletingDirectoryError("Failed to delete the directory images/1", cause),
		NewCannotWriteFileError("Failed writing the file images/1/a.png", cause),
		NewDirectoryNotCreatedError("Failed creating the directory images/1", cause),
	} {
		t.Run(err.Code, func(t *testing.T) {
			out := respond(t, err.Status(), err)
			assert.Equal(t, CodeInternal, out.Code)
			assert.Equal(t, err.Message, out.Error)
			assert.NotContains(t, out.Error, "disk full")
		})
	}
}
