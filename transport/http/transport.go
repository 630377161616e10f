package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"

	"github.com/nntruong1907/CT449-contactbook-backend"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

type message struct {
	Message string `json:"message"`
}

var messages = map[error]string{
	user.ErrNameRequired:     "Name can not be empty",
	user.ErrUsernameRequired: "Username can not be empty",
	user.ErrPasswordRequired: "Password can not be empty",
	user.ErrEmptyUpdate:      "Data to update can not be empty",
	user.ErrPasswordTooLong:  "Password can not exceed 72 bytes",
}

// failure writes err with the status of its kind. fallback is shown for
// failures whose details should not reach the client.
func failure(ctx *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	msg := fallback

	switch user.KindOf(err) {
	case user.KindBadInput:
		status = http.StatusBadRequest
		msg = "Invalid input"
		for target, text := range messages {
			if errors.Is(err, target) {
				msg = text
				break
			}
		}

	case user.KindNotFound:
		status = http.StatusNotFound
		msg = "User not found"

	case user.KindInvalidCredentials:
		status = http.StatusNotFound
		msg = "Username or Password incorrect"

	case user.KindConflict:
		status = http.StatusConflict
		msg = "Username already exists"

	case user.KindStorage:
		status = http.StatusServiceUnavailable
		msg = "Storage unavailable"
	}

	ctx.AbortWithStatusJSON(status, message{msg})
}

func bindPayload(ctx *gin.Context) (map[string]any, error) {
	var payload map[string]any
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		return nil, err
	}

	if payload == nil {
		payload = make(map[string]any)
	}

	return payload, nil
}

func RegisterHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		payload, err := bindPayload(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, message{"Invalid input"})
			return
		}

		resp, err := endpoint(ctx.Request.Context(), contactbook.RegisterRequest{Payload: payload})
		if err != nil {
			failure(ctx, err, "An error occurred while creating the user")
			return
		}

		u := resp.(*user.User)
		ctx.JSON(http.StatusOK, u.Public())
	}
}

func LoginHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		credentials, err := bindPayload(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, message{"Invalid input"})
			return
		}

		resp, err := endpoint(ctx.Request.Context(), contactbook.LoginRequest{Credentials: credentials})
		if err != nil {
			// unknown usernames and wrong passwords read the same
			if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, user.ErrInvalidCredentials) {
				ctx.AbortWithStatusJSON(http.StatusNotFound, message{"Username or Password incorrect"})
				return
			}

			failure(ctx, err, "An error occurred while logging in")
			return
		}

		u := resp.(*user.User)
		ctx.JSON(http.StatusOK, u.Public())
	}
}

func FindHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		req := contactbook.FindRequest{
			Name:    ctx.Query("name"),
			Address: ctx.Query("address"),
		}

		resp, err := endpoint(ctx.Request.Context(), req)
		if err != nil {
			failure(ctx, err, "An error occurred while retrieving users")
			return
		}

		users := resp.([]*user.User)
		ctx.JSON(http.StatusOK, user.PublicAll(users))
	}
}

func FindFavoriteHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		resp, err := endpoint(ctx.Request.Context(), nil)
		if err != nil {
			failure(ctx, err, "An error occurred while retrieving favorite users")
			return
		}

		users := resp.([]*user.User)
		ctx.JSON(http.StatusOK, user.PublicAll(users))
	}
}

func FindByIDHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.Param("id")

		resp, err := endpoint(ctx.Request.Context(), contactbook.FindByIDRequest{ID: id})
		if err != nil {
			failure(ctx, err, "Error retrieving user with id="+id)
			return
		}

		u := resp.(*user.User)
		ctx.JSON(http.StatusOK, u.Public())
	}
}

func UpdateHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.Param("id")

		payload, err := bindPayload(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, message{"Invalid input"})
			return
		}

		req := contactbook.UpdateRequest{
			ID:      id,
			Payload: payload,
		}

		if _, err := endpoint(ctx.Request.Context(), req); err != nil {
			failure(ctx, err, "Error updating user with id="+id)
			return
		}

		ctx.JSON(http.StatusOK, message{"User was updated successfully"})
	}
}

func DeleteHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.Param("id")

		if _, err := endpoint(ctx.Request.Context(), contactbook.DeleteRequest{ID: id}); err != nil {
			failure(ctx, err, "Could not delete user with id="+id)
			return
		}

		ctx.JSON(http.StatusOK, message{"User was deleted successfully"})
	}
}

func DeleteAllHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		resp, err := endpoint(ctx.Request.Context(), nil)
		if err != nil {
			failure(ctx, err, "An error occurred while removing all users")
			return
		}

		count := resp.(contactbook.DeleteAllResponse).Count
		ctx.JSON(http.StatusOK, message{strconv.FormatInt(count, 10) + " Users were deleted successfully"})
	}
}

func CheckHealthHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, err := endpoint(ctx.Request.Context(), nil); err != nil {
			failure(ctx, err, "Service unhealthy")
			return
		}

		ctx.String(http.StatusOK, "ok")
	}
}
