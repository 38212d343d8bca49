// Obligatory // comment

/*

Package nwire wires modules to the providers that implement them.

A Module is a named set of typed resources: the interface that the rest of
a program depends upon.  A Provider implements a module by supplying one
factory, a provider method, per resource.  Provider methods declare the
resources they need, from any module, and a Container builds everything
in the right order, once.

Declaring modules

Modules and their resources are usually package-level variables:

	var Storage = nwire.NewModule("Storage")

	var (
		StorageDSN = nwire.Export[string](Storage, "dsn")
		StorageDB  = nwire.Export[*sql.DB](Storage, "db")
	)

All resources must be exported before the first provider is created for the
module.

Writing providers

	var StorageFromEnv = nwire.NewProvider("StorageFromEnv", Storage)

	func init() {
		nwire.Supply(StorageFromEnv, StorageDSN, func() string {
			return os.Getenv("DSN")
		})
		nwire.Supply(StorageFromEnv, StorageDB, func(dsn string) (*sql.DB, error) {
			return sql.Open("postgres", dsn)
		}, nwire.Arg("dsn", StorageDSN))
		_ = Storage.SetDefaultProvider(StorageFromEnv)
	}

A factory takes one parameter per declared dependency and returns a value
assignable to the resource's type, optionally followed by an error.

Providers can also have resources of their own.  Private resources are
helpers that only the provider's methods can depend upon.  Overriding
resources narrow the type of a module resource:

	var MemoryCache = nwire.NewProvider("MemoryCache", Cache)
	var memoryStore = nwire.Override[*lru.Cache](MemoryCache, CacheStore)
	var memorySize = nwire.Private[int](MemoryCache, "size")

Providing either memoryStore or CacheStore yields the same instance.

Extend copies a provider so that a few of its methods can be replaced.

Declaration mistakes do not panic.  They are recorded, reported by the
Err method of modules and providers, and returned when the module or
provider is registered.

Containers

	c := nwire.NewContainer(nwire.WithLogger(logger))
	if err := c.Register(Storage, nil); err != nil {
		return err
	}
	if err := c.Ready(); err != nil {
		return errors.New(nwire.DetailedError(err))
	}
	db, err := nwire.Provide(c, StorageDB)

Register adds a module and, optionally, its provider.  Modules registered
without a provider use their default provider.  Ready picks a provider for
every registered module and for every module that those providers depend
upon, then checks that no resource depends upon itself.  Every loop is
reported, see CircularDependencyError.

Provide builds a resource and its dependencies on first use and returns the
same instance from then on.  Only resources of registered modules can be
provided.  Private and overriding resources can be provided after
Ready(AllowProviderResources()).

Tampering

Tests often want a real configuration with one or two providers swapped:

	if err := c.Tamper(nwire.AllowOverrides()); err != nil {
		t.Fatal(err)
	}
	_ = c.RegisterProvider(FakeStorage)
	_ = c.Ready()
	defer c.Restore()

Tamper is only allowed on a ready container that has not provided anything.
Restore discards the tampered state, including any instances built since.

Errors

Errors returned by the container wrap sentinel errors such as ErrNoProvider
or ErrCircularDependency.  Use errors.Is to test for them and errors.As to
get the typed error with more information.  DetailedError adds a multi-line
explanation to the message.

*/
package nwire
