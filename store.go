package reshape

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// TableStore common interface for persisting reshaped tables.
type TableStore interface {
	// CreateTable creates the backing table for t.
	CreateTable(t *Table) error
	// WriteTable inserts all rows of t.
	WriteTable(t *Table) error
	// ReadTable reads a table back by name and key columns.
	ReadTable(name string, keyColumns []string) (*Table, error)
	// ReadLookup reads an indicator lookup from a two-column table.
	ReadLookup(table string) (*Lookup, error)
}

// SQLStore sql implementation of TableStore.
type SQLStore struct {
	conn   *sql.DB
	logger *zap.Logger
}

// NewSQLStore returns a new instance of SQLStore.
func NewSQLStore(connection *sql.DB, opts ...StoreOption) *SQLStore {
	s := &SQLStore{
		conn:   connection,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func (s *SQLStore) Ping() error {
	_, err := s.conn.Exec(`SELECT 1`)
	return err
}

// CreateTable creates the backing table: one TEXT column per key column and
// a value column typed REAL unless the table holds textual values.
func (s *SQLStore) CreateTable(t *Table) error {
	if err := s.checkTable(t); err != nil {
		return err
	}

	columns := make([]string, 0, len(t.KeyColumns)+1)
	for _, key := range t.KeyColumns {
		columns = append(columns, key+` TEXT`)
	}
	columns = append(columns, t.ValueColumn+` `+s.valueType(t))

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`, t.Name, strings.Join(columns, `, `))
	if _, err := s.conn.Exec(query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}

	s.logger.Info("created table", zap.String("table", t.Name), zap.Strings("key", t.KeyColumns))

	return nil
}

// WriteTable inserts all rows of the table through one prepared statement.
func (s *SQLStore) WriteTable(t *Table) error {
	if err := s.checkTable(t); err != nil {
		return err
	}

	columns := append(append(make([]string, 0, len(t.KeyColumns)+1), t.KeyColumns...), t.ValueColumn)
	placeholders := strings.TrimRight(strings.Repeat("?,", len(columns)), ",")

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		t.Name, strings.Join(columns, `, `), placeholders)

	// ClickHouse only accepts inserts inside a transaction scope.
	scope, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin insert into %s: %w", t.Name, err)
	}

	stmt, err := scope.Prepare(query)
	if err != nil {
		scope.Rollback()
		return fmt.Errorf("failed to prepare insert into %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for _, row := range t.Rows {
		params := make([]interface{}, 0, len(columns))
		for _, k := range row.Key {
			params = append(params, k)
		}

		switch row.Value.Kind {
		case ValueNumber:
			params = append(params, row.Value.Number)
		case ValueText:
			params = append(params, row.Value.Text)
		default:
			params = append(params, nil)
		}

		if _, err := stmt.Exec(params...); err != nil {
			scope.Rollback()
			return fmt.Errorf("failed to insert into %s: %w", t.Name, err)
		}
	}

	if err := scope.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert into %s: %w", t.Name, err)
	}

	s.logger.Info("wrote table", zap.String("table", t.Name), zap.Int("rows", len(t.Rows)))

	return nil
}

// ReadTable reads a table back. The value column is named by
// DefaultValueColumn.
func (s *SQLStore) ReadTable(name string, keyColumns []string) (*Table, error) {
	if err := checkIdent(name); err != nil {
		return nil, err
	}
	for _, key := range keyColumns {
		if err := checkIdent(key); err != nil {
			return nil, err
		}
	}

	columns := append(append(make([]string, 0, len(keyColumns)+1), keyColumns...), DefaultValueColumn)
	query := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(columns, `, `), name)

	rows, err := s.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to exec query: %w, query: %s", err, query)
	}
	defer rows.Close()

	table := &Table{
		Name:        name,
		KeyColumns:  keyColumns,
		ValueColumn: DefaultValueColumn,
	}

	for rows.Next() {
		dest := make([]interface{}, len(columns))
		for i := range dest {
			var v interface{}
			dest[i] = &v
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		key := make([]string, len(keyColumns))
		for i := range keyColumns {
			key[i] = scanString(*dest[i].(*interface{}))
		}

		table.Rows = append(table.Rows, &TableRow{
			Key:   key,
			Value: scanValue(*dest[len(keyColumns)].(*interface{})),
		})
	}

	return table, rows.Err()
}

// ReadLookup reads an indicator lookup from a code,title table.
func (s *SQLStore) ReadLookup(table string) (*Lookup, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT code, title FROM %s`, table)

	rows, err := s.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to exec query: %w, query: %s", err, query)
	}
	defer rows.Close()

	titles := make(map[string]string)
	for rows.Next() {
		var code, title string
		if err := rows.Scan(&code, &title); err != nil {
			return nil, err
		}
		titles[code] = title
	}

	return &Lookup{titles: titles}, rows.Err()
}

func (s *SQLStore) checkTable(t *Table) error {
	if err := checkIdent(t.Name); err != nil {
		return err
	}
	for _, key := range t.KeyColumns {
		if err := checkIdent(key); err != nil {
			return err
		}
	}
	return checkIdent(t.ValueColumn)
}

func (s *SQLStore) valueType(t *Table) string {
	for _, row := range t.Rows {
		if row.Value.Kind == ValueText {
			return `TEXT`
		}
	}
	return `REAL`
}

func scanString(v interface{}) string {
	switch vt := v.(type) {
	case nil:
		return ""
	case string:
		return vt
	case []byte:
		return string(vt)
	default:
		return fmt.Sprintf("%v", vt)
	}
}

func scanValue(v interface{}) Value {
	switch vt := v.(type) {
	case nil:
		return Value{}
	case float64:
		return Value{Kind: ValueNumber, Number: vt}
	case float32:
		return Value{Kind: ValueNumber, Number: float64(vt)}
	case int64:
		return Value{Kind: ValueNumber, Number: float64(vt)}
	case []byte:
		return Value{Kind: ValueText, Text: string(vt)}
	case string:
		return Value{Kind: ValueText, Text: vt}
	default:
		return Value{Kind: ValueText, Text: fmt.Sprintf("%v", vt)}
	}
}
