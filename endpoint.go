package contactbook

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"

	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

var ErrInvalidRequest = errors.New("invalid request")

type EndpointSet struct {
	Register     endpoint.Endpoint
	Login        endpoint.Endpoint
	Find         endpoint.Endpoint
	FindByID     endpoint.Endpoint
	FindFavorite endpoint.Endpoint
	Update       endpoint.Endpoint
	Delete       endpoint.Endpoint
	DeleteAll    endpoint.Endpoint
	CheckHealth  endpoint.Endpoint
}

func MakeEndpoints(svc Service) *EndpointSet {
	return &EndpointSet{
		Register:     RegisterEndpoint(svc),
		Login:        LoginEndpoint(svc),
		Find:         FindEndpoint(svc),
		FindByID:     FindByIDEndpoint(svc),
		FindFavorite: FindFavoriteEndpoint(svc),
		Update:       UpdateEndpoint(svc),
		Delete:       DeleteEndpoint(svc),
		DeleteAll:    DeleteAllEndpoint(svc),
		CheckHealth:  CheckHealthEndpoint(svc),
	}
}

type RegisterRequest struct {
	Payload map[string]any
}

func RegisterEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(RegisterRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.Register(ctx, req.Payload)
	}
}

type LoginRequest struct {
	Credentials map[string]any
}

func LoginEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(LoginRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.Login(ctx, req.Credentials)
	}
}

// FindRequest searches by name when set, else by address, else returns
// every record.
type FindRequest struct {
	Name    string `json:"name" form:"name"`
	Address string `json:"address" form:"address"`
}

func FindEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(FindRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		switch {
		case req.Name != "":
			return svc.FindByName(ctx, req.Name)
		case req.Address != "":
			return svc.FindByAddress(ctx, req.Address)
		}

		return svc.Find(ctx, user.Filter{})
	}
}

type FindByIDRequest struct {
	ID string `json:"id"`
}

func FindByIDEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(FindByIDRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.FindByID(ctx, req.ID)
	}
}

func FindFavoriteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		return svc.FindFavorite(ctx)
	}
}

type UpdateRequest struct {
	ID      string
	Payload map[string]any
}

func UpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(UpdateRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.Update(ctx, req.ID, req.Payload)
	}
}

type DeleteRequest struct {
	ID string `json:"id"`
}

func DeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(DeleteRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.Delete(ctx, req.ID)
	}
}

type DeleteAllResponse struct {
	Count int64 `json:"count"`
}

func DeleteAllEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		count, err := svc.DeleteAll(ctx)
		if err != nil {
			return nil, err
		}

		return DeleteAllResponse{Count: count}, nil
	}
}

func CheckHealthEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		if err := svc.CheckHealth(ctx); err != nil {
			return nil, err
		}

		return "ok", nil
	}
}
