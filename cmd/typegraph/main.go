// Command typegraph runs a demo GraphQL gateway over an in-memory store.
// It exists to exercise the schema core end to end: declare entity types,
// complete the schema, and serve composed query expressions over HTTP.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/renholm/typegraph/internal/eventbus"
	"github.com/renholm/typegraph/internal/expr"
	"github.com/renholm/typegraph/internal/memstore"
	"github.com/renholm/typegraph/internal/otel"
	"github.com/renholm/typegraph/internal/schema"
	"github.com/renholm/typegraph/internal/server"
)

const rootUsage = `typegraph — schema-defined GraphQL gateway demo

USAGE:
  typegraph <command> [flags]

COMMANDS:
  serve            Serve the demo schema over HTTP
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -server.addr <addr>       HTTP listen address (default: :8080)
  -server.pretty            Pretty-print JSON responses
  -server.timeout <dur>     Per-request timeout, e.g. 10s (default: 10s)
  -otel.endpoint <addr>     OTLP collector endpoint
  -otel.service <name>      OpenTelemetry service name (default: typegraph)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("typegraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}
	switch rest[0] {
	case "serve":
		return serve(rest[1:])
	case "help":
		fmt.Fprint(os.Stdout, rootUsage+"\n"+serveUsage)
		return nil
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("server.addr", ":8080", "")
	pretty := fs.Bool("server.pretty", false, "")
	timeout := fs.Duration("server.timeout", 10*time.Second, "")
	otelEndpoint := fs.String("otel.endpoint", "", "")
	otelService := fs.String("otel.service", "typegraph", "")
	fs.SetOutput(new(bytes.Buffer))
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(*otelEndpoint, *otelService)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	s, err := demoSchema()
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithTimeout(*timeout)}
	if *pretty {
		opts = append(opts, server.WithPretty())
	}
	h := server.New(s, opts...)

	log.Printf("GraphQL server listening on %s", *addr)
	return http.ListenAndServe(*addr, h)
}

// User is a demo entity.
type User struct {
	ID   uuid.UUID
	Name string
	Age  int32
}

// Order is a demo entity owned by a User.
type Order struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Total  float32
}

func demoSchema() (*schema.Schema, error) {
	store := memstore.New()
	alice, bob := uuid.New(), uuid.New()
	memstore.Add(store,
		User{ID: alice, Name: "Alice", Age: 34},
		User{ID: bob, Name: "Bob", Age: 27},
	)
	memstore.Add(store,
		Order{ID: uuid.New(), UserID: alice, Total: 13.37},
		Order{ID: uuid.New(), UserID: alice, Total: 42.00},
		Order{ID: uuid.New(), UserID: bob, Total: 7.50},
	)

	s := schema.New(store.Snapshot)
	ctx := s.ContextParam()

	users, err := schema.AddType[User](s)
	if err != nil {
		return nil, err
	}
	if err := users.AddAllFields(); err != nil {
		return nil, err
	}
	// orders joins through the shared context and the entity in one tree.
	err = users.AddFieldExpr("orders", expr.Apply(
		func(db *memstore.Store, u User) []Order {
			return memstore.Filter(db, func(o Order) bool { return o.UserID == u.ID })
		},
		ctx, users.EntityParam(),
	))
	if err != nil {
		return nil, err
	}

	orders, err := schema.AddType[Order](s)
	if err != nil {
		return nil, err
	}
	if err := orders.AddAllFields(); err != nil {
		return nil, err
	}

	err = schema.AddQuery[User](s, "users", func(map[string]any) (expr.Expr, error) {
		return expr.Apply(memstore.All[User], ctx), nil
	})
	if err != nil {
		return nil, err
	}
	err = schema.AddQuery[Order](s, "orders", func(map[string]any) (expr.Expr, error) {
		return expr.Apply(memstore.All[Order], ctx), nil
	})
	if err != nil {
		return nil, err
	}
	err = schema.AddUnmodifiedQuery[int](s, "userCount", func(map[string]any) (expr.Expr, error) {
		return expr.Apply(memstore.Count[User], ctx), nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.Complete(); err != nil {
		return nil, err
	}
	return s, nil
}
