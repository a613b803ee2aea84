package main

import (
	"github.com/cockroachdb/errors"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/plan"
	"sqlcore/pkg/storage"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// workload is the sample database the CLI plans and runs queries against.
type workload struct {
	cat   *catalog.MemCatalog
	store storage.Storage
}

type demoTable struct {
	name   string
	schema *catalog.Schema
	rows   [][]any
}

func demoTables() []demoTable {
	return []demoTable{
		{
			name: "users",
			schema: catalog.NewSchemaBuilder("").
				AddColumn("id", types.IntType).
				AddColumn("name", types.StringType).
				AddColumn("email", types.StringType).
				AddColumn("age", types.IntType).
				AddColumn("created_at", types.StringType).
				MustBuild(),
			rows: [][]any{
				{1, "Alice Johnson", "alice@example.com", 28, "2024-01-15"},
				{2, "Bob Smith", "bob@example.com", 35, "2024-01-20"},
				{3, "Charlie Brown", "charlie@example.com", 42, "2024-02-01"},
				{4, "Diana Prince", "diana@example.com", 31, "2024-02-10"},
				{5, "Eve Wilson", "eve@example.com", 26, "2024-02-15"},
			},
		},
		{
			name: "products",
			schema: catalog.NewSchemaBuilder("").
				AddColumn("id", types.IntType).
				AddColumn("name", types.StringType).
				AddColumn("category", types.StringType).
				AddColumn("price", types.FloatType).
				AddColumn("stock", types.IntType).
				MustBuild(),
			rows: [][]any{
				{1, "Laptop Pro", "Electronics", 1299.99, 50},
				{2, "Wireless Mouse", "Electronics", 29.99, 200},
				{3, "Office Chair", "Furniture", 399.99, 75},
				{4, "Standing Desk", "Furniture", 599.99, 30},
				{5, "Coffee Maker", "Appliances", 79.99, 100},
			},
		},
		{
			name: "orders",
			schema: catalog.NewSchemaBuilder("").
				AddColumn("id", types.IntType).
				AddColumn("user_id", types.IntType).
				AddColumn("product_id", types.IntType).
				AddColumn("quantity", types.IntType).
				AddColumn("total", types.FloatType).
				AddColumn("status", types.StringType).
				MustBuild(),
			rows: [][]any{
				{1, 1, 1, 1, 1299.99, "completed"},
				{2, 2, 2, 2, 59.98, "completed"},
				{3, 3, 3, 1, 399.99, "processing"},
				{4, 1, 5, 1, 79.99, "completed"},
				{5, 4, 4, 1, 599.99, "shipped"},
			},
		},
	}
}

// newWorkload registers the sample tables and loads them into store in
// fragments of fragmentRows rows. Tables that already hold data are left
// alone, so a persistent store is only loaded once.
func newWorkload(store storage.Storage, fragmentRows int) (*workload, error) {
	if fragmentRows <= 0 {
		return nil, errors.Newf("fragment rows must be positive, got %d", fragmentRows)
	}

	w := &workload{cat: catalog.NewMemCatalog(), store: store}
	for _, t := range demoTables() {
		if err := w.cat.AddTable(t.name, t.schema); err != nil {
			return nil, err
		}
		if frags, err := store.Fragments(t.name); err == nil && len(frags) > 0 {
			continue
		}
		for start := 0; start < len(t.rows); start += fragmentRows {
			end := min(start+fragmentRows, len(t.rows))
			if err := loadFragment(store, t, t.rows[start:end]); err != nil {
				return nil, errors.Wrapf(err, "load %s", t.name)
			}
		}
	}
	return w, nil
}

// loadFragment writes rows through one sink, which stores them as one
// fragment.
func loadFragment(store storage.Storage, t demoTable, rows [][]any) (err error) {
	sink, err := store.Sink(t.name, t.schema)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, sink.Close())
	}()

	for _, values := range rows {
		row := make([]types.Field, len(values))
		for i, v := range values {
			if row[i], err = tuple.FieldOf(v); err != nil {
				return err
			}
		}
		if err := sink.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// query is a named logical plan over the workload.
type query struct {
	name        string
	description string
	build       func(cat catalog.Catalog) (plan.Node, error)
}

func col(name string, t types.Type) expr.Target {
	return expr.NewTarget(expr.Col(name, t), "")
}

func demoQueries() []query {
	return []query{
		{
			name:        "adults",
			description: "SELECT name, age FROM users WHERE age > 30",
			build: func(catalog.Catalog) (plan.Node, error) {
				return plan.NewRoot(plan.NewProjection(
					[]expr.Target{col("name", types.StringType), col("age", types.IntType)},
					plan.NewSelection(expr.Gt(expr.Col("age", types.IntType), expr.Int(30)), plan.NewScan("users", "")),
				)), nil
			},
		},
		{
			name: "order-details",
			description: "SELECT u.name, p.name, o.total FROM orders o, users u, products p " +
				"WHERE u.id = o.user_id AND p.id = o.product_id ORDER BY o.total DESC",
			build: func(catalog.Catalog) (plan.Node, error) {
				joins := plan.NewJoin(plan.CrossJoin,
					plan.NewJoin(plan.CrossJoin, plan.NewScan("orders", "o"), plan.NewScan("users", "u")),
					plan.NewScan("products", "p"),
				)
				qual := expr.And(
					expr.Eq(expr.Col("u.id", types.IntType), expr.Col("o.user_id", types.IntType)),
					expr.Eq(expr.Col("p.id", types.IntType), expr.Col("o.product_id", types.IntType)),
				)
				sorted := plan.NewSort(
					[]plan.SortKey{{Column: expr.Col("o.total", types.FloatType), Ascending: false}},
					plan.NewSelection(qual, joins),
				)
				return plan.NewRoot(plan.NewProjection([]expr.Target{
					col("u.name", types.StringType),
					col("p.name", types.StringType),
					col("o.total", types.FloatType),
				}, sorted)), nil
			},
		},
		{
			name: "spend-per-user",
			description: "SELECT u.name, count(*), sum(o.total) FROM users u, orders o " +
				"WHERE u.id = o.user_id GROUP BY u.name HAVING sum(o.total) > 100",
			build: func(cat catalog.Catalog) (plan.Node, error) {
				count, err := expr.Call(cat, catalog.AggCount)
				if err != nil {
					return nil, err
				}
				sum, err := expr.Call(cat, catalog.AggSum, expr.Col("o.total", types.FloatType))
				if err != nil {
					return nil, err
				}
				having, err := expr.Call(cat, catalog.AggSum, expr.Col("o.total", types.FloatType))
				if err != nil {
					return nil, err
				}

				joined := plan.NewSelection(
					expr.Eq(expr.Col("u.id", types.IntType), expr.Col("o.user_id", types.IntType)),
					plan.NewJoin(plan.CrossJoin, plan.NewScan("users", "u"), plan.NewScan("orders", "o")),
				)
				groupBy := plan.NewGroupBy(
					[]*expr.FieldEval{expr.Col("u.name", types.StringType)},
					[]expr.Target{
						col("u.name", types.StringType),
						expr.NewTarget(count, "orders"),
						expr.NewTarget(sum, "spent"),
					},
					joined,
				)
				groupBy.Having = expr.Gt(having, expr.Float(100))
				return plan.NewRoot(groupBy), nil
			},
		},
		{
			name:        "stock-by-category",
			description: "SELECT category, sum(stock), avg(price) FROM products GROUP BY category ORDER BY category",
			build: func(cat catalog.Catalog) (plan.Node, error) {
				stock, err := expr.Call(cat, catalog.AggSum, expr.Col("stock", types.IntType))
				if err != nil {
					return nil, err
				}
				price, err := expr.Call(cat, catalog.AggAvg, expr.Col("price", types.FloatType))
				if err != nil {
					return nil, err
				}
				groupBy := plan.NewGroupBy(
					[]*expr.FieldEval{expr.Col("category", types.StringType)},
					[]expr.Target{
						col("category", types.StringType),
						expr.NewTarget(stock, "stock"),
						expr.NewTarget(price, "avg_price"),
					},
					plan.NewScan("products", ""),
				)
				return plan.NewRoot(plan.NewSort(
					[]plan.SortKey{{Column: expr.Col("category", types.StringType), Ascending: true}},
					groupBy,
				)), nil
			},
		},
		{
			name:        "archive-completed",
			description: "CREATE TABLE completed AS SELECT * FROM orders WHERE status = 'completed'",
			build: func(catalog.Catalog) (plan.Node, error) {
				return plan.NewStore("completed", plan.NewSelection(
					expr.Eq(expr.Col("status", types.StringType), expr.Str("completed")),
					plan.NewScan("orders", ""),
				)), nil
			},
		},
		{
			name:        "arithmetic",
			description: "SELECT 6 * 7 AS answer",
			build: func(catalog.Catalog) (plan.Node, error) {
				return plan.NewRoot(plan.NewLiteral([]expr.Target{
					expr.NewTarget(expr.Mul(expr.Int(6), expr.Int(7)), "answer"),
				})), nil
			},
		},
	}
}

func findQuery(name string) (query, error) {
	for _, q := range demoQueries() {
		if q.name == name {
			return q, nil
		}
	}
	return query{}, errors.Newf("unknown query %q", name)
}
