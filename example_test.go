package nwire_test

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/muir/nwire"
	"github.com/pkg/errors"
)

// printingDriver is a database/sql driver that only reports what is done
// with it.
type printingDriver struct{}

type printingConn struct{}

type printingTx struct{}

var _ driver.Driver = printingDriver{}

func init() {
	sql.Register("printing", printingDriver{})
}

func (printingDriver) Open(string) (driver.Conn, error) {
	fmt.Println("db open")
	return printingConn{}, nil
}

func (printingConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.Errorf("prepare %q: statements are not supported", query)
}

func (printingConn) Close() error {
	fmt.Println("db close")
	return nil
}

func (printingConn) Begin() (driver.Tx, error) {
	fmt.Println("tx begin")
	return printingTx{}, nil
}

func (printingTx) Commit() error {
	fmt.Println("tx committed")
	return nil
}

func (printingTx) Rollback() error {
	fmt.Println("tx rolled back")
	return nil
}

// A module declares what it offers, a provider says how.
func Example() {
	numbers := nwire.NewModule("Numbers")
	a := nwire.Export[int](numbers, "a")
	b := nwire.Export[int](numbers, "b")

	ten := nwire.NewProvider("Ten", numbers)
	nwire.Supply(ten, a, func() int { return 10 })
	nwire.Supply(ten, b, func(a int) int { return a * 2 }, nwire.Arg("a", a))

	c := nwire.NewContainer()
	if err := c.Register(numbers, ten); err != nil {
		fmt.Println(nwire.DetailedError(err))
		return
	}
	if err := c.Ready(); err != nil {
		fmt.Println(nwire.DetailedError(err))
		return
	}
	fmt.Println(nwire.MustProvide(c, b))
	// Output: 20
}

// Tests can swap providers on a ready container and then put
// things back.
func ExampleContainer_Tamper() {
	numbers := nwire.NewModule("Numbers")
	a := nwire.Export[int](numbers, "a")
	ten := nwire.NewProvider("Ten", numbers)
	nwire.Supply(ten, a, func() int { return 10 })
	eleven := nwire.NewProvider("Eleven", numbers)
	nwire.Supply(eleven, a, func() int { return 11 })

	c := nwire.NewContainer()
	_ = c.Register(numbers, ten)
	_ = c.Ready()

	_ = c.Tamper(nwire.AllowOverrides())
	_ = c.RegisterProvider(eleven)
	_ = c.Ready()
	fmt.Println(nwire.MustProvide(c, a))

	_ = c.Restore()
	fmt.Println(nwire.MustProvide(c, a))
	// Output: 11
	// 10
}

func ExampleCircularDependencyError() {
	chicken := nwire.NewModule("Chicken")
	egg := nwire.NewModule("Egg")
	hen := nwire.Export[string](chicken, "hen")
	shell := nwire.Export[string](egg, "shell")

	farm := nwire.NewProvider("Farm", chicken)
	nwire.Supply(farm, hen, func(s string) string { return "hatched from " + s }, nwire.Arg("egg", shell))
	nest := nwire.NewProvider("Nest", egg)
	nwire.Supply(nest, shell, func(h string) string { return "laid by " + h }, nwire.Arg("layer", hen))

	c := nwire.NewContainer()
	_ = c.Register(chicken, farm)
	_ = c.Register(egg, nest)
	fmt.Println(c.Ready())
	// Output: circular dependency: Chicken.hen string -> Egg.shell string -> Chicken.hen string
}

// Resources are built on first use, once.
func Example_database() {
	storage := nwire.NewModule("Storage")
	dsn := nwire.Export[string](storage, "dsn")
	db := nwire.Export[*sql.DB](storage, "db")

	printing := nwire.NewProvider("PrintingStorage", storage)
	nwire.Supply(printing, dsn, func() string { return "printing://" })
	nwire.Supply(printing, db, func(dsn string) (*sql.DB, error) {
		return sql.Open("printing", dsn)
	}, nwire.Arg("dsn", dsn))
	_ = storage.SetDefaultProvider(printing)

	c := nwire.NewContainer()
	_ = c.Register(storage, nil)
	if err := c.Ready(); err != nil {
		fmt.Println(err)
		return
	}
	conn := nwire.MustProvide(c, db)
	tx, err := conn.Begin()
	if err != nil {
		fmt.Println(err)
		return
	}
	_ = tx.Commit()
	fmt.Println(nwire.MustProvide(c, db) == conn)
	_ = conn.Close()
	// Output: db open
	// tx begin
	// tx committed
	// true
	// db close
}
