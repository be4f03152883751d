// Command axon-demo mounts a small component tree against a console
// renderer: a guarded dashboard that loads its entries through a resolver
// and re-renders as the data arrives.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nextcore/axon/pkg/app"
	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/di"
	"github.com/nextcore/axon/pkg/observe"
)

type sessionGuard struct{}

func (sessionGuard) CanActivate(c *component.Component) any {
	// Pretend to check a session asynchronously.
	return observe.Go(func() (any, error) {
		time.Sleep(50 * time.Millisecond)
		return true, nil
	})
}

func (sessionGuard) Fallback(*component.Component) component.Node {
	return component.TextNode("sign in to continue")
}

type entriesResolver struct{}

func (entriesResolver) Resolve(*component.Component) any {
	return observe.Go(func() (any, error) {
		time.Sleep(100 * time.Millisecond)
		return []string{"alpha", "beta", "gamma"}, nil
	})
}

func (entriesResolver) IsEmpty(data any) bool {
	s, ok := data.([]string)
	return !ok || len(s) == 0
}

func dashboard() *component.Descriptor {
	return &component.Descriptor{
		Name: "dashboard",
		Providers: []di.Provider{
			di.ValueProvider{Provide: "title", Value: "axon demo"},
		},
		Guards: []component.GuardSpec{{Guard: sessionGuard{}}},
		Resolvers: []component.ResolverSpec{
			{Token: "entries", Resolver: entriesResolver{}},
		},
		Render: func(c *component.Component) any {
			title, _ := c.Resolve("title")
			entries, _ := c.Instance("entries")
			lines := []string{fmt.Sprint(title)}
			if items, ok := entries.([]string); ok {
				for _, item := range items {
					lines = append(lines, "  - "+item)
				}
			}
			return component.TextNode(strings.Join(lines, "\n"))
		},
		RenderLoading: func(*component.Component) any {
			return component.TextNode("loading entries…")
		},
		RenderEmpty: func(*component.Component) any {
			return component.TextNode("no entries")
		},
	}
}

func main() {
	opts := app.DefaultOptions()
	if path := os.Getenv("AXON_CONFIG"); path != "" {
		loaded, err := app.LoadOptions(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		opts = loaded
	}

	a := app.New(opts, app.RendererFunc(func(c *component.Component, n component.Node) {
		fmt.Printf("[%s]\n%s\n\n", c.Name(), n.Text)
	}))

	root, err := a.Mount(dashboard(), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := a.NotifyMounted(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Let the guard approve and the resolver settle.
	time.Sleep(300 * time.Millisecond)
	a.FlushWork()
	a.Shutdown()
}
