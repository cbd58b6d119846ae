// Package container is a small typed service registry.
//
// Services are registered per Go type with Provide (lazy constructor) or
// Instance (prebuilt value) and fetched with Resolve. Every type resolves to
// one memoized value. Lookups are keyed by a generic struct type instead of
// reflection, so a missing registration is reported as ErrNotRegistered and
// a constructor that depends on itself, directly or not, as ErrCycle.
//
//	c := container.New()
//	container.Instance(c, cfg)
//	container.Provide(c, func(c *container.Container) (*catalog.Service, error) {
//		db, err := container.Resolve[*query.DB](c)
//		if err != nil {
//			return nil, err
//		}
//		return catalog.NewService(db), nil
//	})
//	svc := container.MustResolve[*catalog.Service](c)
package container
