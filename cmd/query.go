package main

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v2"

	"github.com/nntruong1907/CT449-contactbook-backend"
	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/user"

	pubsubTransport "github.com/nntruong1907/CT449-contactbook-backend/transport/pubsub"
)

var errNATSDisabled = errors.New("nats transport disabled")

var findCommand = &cli.Command{
	Name:  "find",
	Usage: "list users of a running instance over nats",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "case-insensitive name fragment"},
		&cli.StringFlag{Name: "address", Usage: "case-insensitive address fragment"},
		&cli.BoolFlag{Name: "favorite", Usage: "only favorite users"},
	},
	Action: find,
}

func natsURL(instance conf.Instance) string {
	return "nats://" + instance.Host + ":" + strconv.Itoa(instance.Port)
}

func find(cli *cli.Context) error {
	if err := conf.LoadEnv(cli); err != nil {
		return err
	}

	cfg, err := conf.LoadConfig(conf.Path)
	if err != nil {
		return err
	}

	n := cfg.Transports.NATS
	if !n.Enabled {
		return errNATSDisabled
	}

	nc, err := nats.Connect(natsURL(n.Internal))
	if err != nil {
		return err
	}
	defer nc.Close()

	endpoints := pubsubTransport.MakeClientEndpoints(nc, n.ReqPrefix)

	var resp any
	if cli.Bool("favorite") {
		resp, err = endpoints.FindFavorite(cli.Context, nil)
	} else {
		resp, err = endpoints.Find(cli.Context, contactbook.FindRequest{
			Name:    cli.String("name"),
			Address: cli.String("address"),
		})
	}
	if err != nil {
		return err
	}

	users, ok := resp.([]*user.User)
	if !ok {
		return contactbook.ErrInvalidRequest
	}

	return printUsers(cli.App.Writer, users)
}

func printUsers(w io.Writer, users []*user.User) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(user.PublicAll(users))
}
