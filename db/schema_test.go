package db

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/config"
)

func TestDescribeSchemaMySQL(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	d, err := newDB(conn, config.DriverMySQL, 2)
	require.NoError(t, err)

	def := "-"
	mock.ExpectQuery("FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("perusahaan_limbah"))
	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("perusahaan_limbah").
		WillReturnRows(sqlmock.NewRows([]string{"name", "col_type", "nullable", "col_key", "col_default"}).
			AddRow("id", "int", "NO", "PRI", nil).
			AddRow("nama_perusahaan", "varchar(100)", "NO", "", nil).
			AddRow("kota_perusahaan_limbah", "varchar(50)", "YES", "", def))
	mock.ExpectQuery("FROM information_schema.key_column_usage").
		WithArgs("perusahaan_limbah").
		WillReturnRows(sqlmock.NewRows([]string{"col", "ref_table", "ref_col"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `perusahaan_limbah` LIMIT 2")).
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(
			column("id", "INT"), column("nama_perusahaan", "VARCHAR"), column("kota_perusahaan_limbah", "VARCHAR"),
		).
			AddRow([]byte("1"), []byte("PT. ABC"), []byte("KOTA CIMAHI")).
			AddRow([]byte("2"), []byte("PT. XYZ"), nil))

	got, err := d.DescribeSchema(context.Background())
	require.NoError(t, err)

	want := "CREATE TABLE `perusahaan_limbah` (\n" +
		"\t`id` int NOT NULL,\n" +
		"\t`nama_perusahaan` varchar(100) NOT NULL,\n" +
		"\t`kota_perusahaan_limbah` varchar(50) DEFAULT '-',\n" +
		"\tPRIMARY KEY (`id`)\n" +
		")\n\n" +
		"/*\n" +
		"2 rows from perusahaan_limbah table:\n" +
		"id\tnama_perusahaan\tkota_perusahaan_limbah\n" +
		"1\tPT. ABC\tKOTA CIMAHI\n" +
		"2\tPT. XYZ\tNone\n" +
		"*/"
	assert.Equal(t, want, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDescribeSchemaPostgres(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	d, err := newDB(conn, config.DriverPostgres, 2)
	require.NoError(t, err)
	assert.Equal(t, "PostgreSQL", d.Dialect())

	colNames := []string{"name", "col_type", "nullable", "col_key", "col_default"}
	fkNames := []string{"col", "ref_table", "ref_col"}
	columnsQuery := regexp.QuoteMeta("AND tc.table_name = $1") + "(?s).*" +
		regexp.QuoteMeta("WHERE c.table_schema = current_schema() AND c.table_name = $1")
	fkQuery := regexp.QuoteMeta("WHERE tc.constraint_type = 'FOREIGN KEY'")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT table_name::text AS name")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("perusahaan_limbah").AddRow("transportasi"))

	mock.ExpectQuery(columnsQuery).
		WithArgs("perusahaan_limbah").
		WillReturnRows(sqlmock.NewRows(colNames).
			AddRow("id", "integer", "NO", "PRI", "nextval('perusahaan_limbah_id_seq'::regclass)").
			AddRow("nama_perusahaan", "character varying", "NO", "", nil).
			AddRow("status", "character varying", "YES", "", "'aktif'::character varying"))
	mock.ExpectQuery(fkQuery).
		WithArgs("perusahaan_limbah").
		WillReturnRows(sqlmock.NewRows(fkNames))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "perusahaan_limbah" LIMIT 2`)).
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(
			column("id", "INT4"), column("nama_perusahaan", "VARCHAR"), column("status", "VARCHAR"),
		).AddRow(int64(1), "PT. ABC", "aktif"))

	mock.ExpectQuery(columnsQuery).
		WithArgs("transportasi").
		WillReturnRows(sqlmock.NewRows(colNames).
			AddRow("id", "integer", "NO", "PRI", nil).
			AddRow("perusahaan_id", "integer", "YES", "", nil).
			AddRow("jenis_kendaraan", "text", "NO", "", nil))
	mock.ExpectQuery(fkQuery).
		WithArgs("transportasi").
		WillReturnRows(sqlmock.NewRows(fkNames).AddRow("perusahaan_id", "perusahaan_limbah", "id"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "transportasi" LIMIT 2`)).
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(
			column("id", "INT4"), column("perusahaan_id", "INT4"), column("jenis_kendaraan", "TEXT"),
		))

	got, err := d.DescribeSchema(context.Background())
	require.NoError(t, err)

	want := "CREATE TABLE \"perusahaan_limbah\" (\n" +
		"\t\"id\" integer NOT NULL DEFAULT nextval('perusahaan_limbah_id_seq'::regclass),\n" +
		"\t\"nama_perusahaan\" character varying NOT NULL,\n" +
		"\t\"status\" character varying DEFAULT 'aktif'::character varying,\n" +
		"\tPRIMARY KEY (\"id\")\n" +
		")\n\n" +
		"/*\n" +
		"1 rows from perusahaan_limbah table:\n" +
		"id\tnama_perusahaan\tstatus\n" +
		"1\tPT. ABC\taktif\n" +
		"*/\n\n" +
		"CREATE TABLE \"transportasi\" (\n" +
		"\t\"id\" integer NOT NULL,\n" +
		"\t\"perusahaan_id\" integer,\n" +
		"\t\"jenis_kendaraan\" text NOT NULL,\n" +
		"\tPRIMARY KEY (\"id\"),\n" +
		"\tFOREIGN KEY (\"perusahaan_id\") REFERENCES \"perusahaan_limbah\" (\"id\")\n" +
		")\n\n" +
		"/*\n" +
		"0 rows from transportasi table:\n" +
		"id\tperusahaan_id\tjenis_kendaraan\n" +
		"*/"
	assert.Equal(t, want, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultLiteral(t *testing.T) {
	tests := []struct {
		value   string
		colType string
		want    string
	}{
		{"active", "varchar(20)", "'active'"},
		{"it's", "varchar(20)", "'it''s'"},
		{"0", "varchar(10)", "'0'"},
		{"0", "int", "0"},
		{"1.5", "decimal(5,2)", "1.5"},
		{"CURRENT_TIMESTAMP", "timestamp", "CURRENT_TIMESTAMP"},
		{"NULL", "varchar(10)", "NULL"},
		{"'KOTA BANDUNG'", "TEXT", "'KOTA BANDUNG'"},
		{"'aktif'::character varying", "character varying", "'aktif'::character varying"},
		{"nextval('seq'::regclass)", "integer", "nextval('seq'::regclass)"},
		{"(now())", "datetime", "(now())"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultLiteral(tt.value, tt.colType))
		})
	}
}

func TestDescribeSchemaSkipsUnreadableSample(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	d, err := newDB(conn, config.DriverMySQL, 3)
	require.NoError(t, err)

	mock.ExpectQuery("FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("audit"))
	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("audit").
		WillReturnRows(sqlmock.NewRows([]string{"name", "col_type", "nullable", "col_key", "col_default"}).
			AddRow("id", "int", "NO", "PRI", nil))
	mock.ExpectQuery("FROM information_schema.key_column_usage").
		WithArgs("audit").
		WillReturnRows(sqlmock.NewRows([]string{"col", "ref_table", "ref_col"}))
	mock.ExpectQuery("SELECT \\* FROM `audit`").
		WillReturnError(fmt.Errorf("Error 1142 (42000): SELECT command denied"))

	got, err := d.DescribeSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE `audit` (\n\t`id` int NOT NULL,\n\tPRIMARY KEY (`id`)\n)", got)
}

func TestDescribeSchemaCatalogError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	d, err := newDB(conn, config.DriverPostgres, 3)
	require.NoError(t, err)

	mock.ExpectQuery("FROM information_schema.tables").
		WillReturnError(fmt.Errorf("permission denied for schema public"))

	_, err = d.DescribeSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list tables")
}

func TestQuote(t *testing.T) {
	my, _ := dialectFor(config.DriverMySQL)
	pg, _ := dialectFor(config.DriverPostgres)

	assert.Equal(t, "`weird``name`", my.quote("weird`name"))
	assert.Equal(t, `"Order ""Items"""`, pg.quote(`Order "Items"`))
}

func TestDialectForUnknown(t *testing.T) {
	_, err := dialectFor("oracle")
	require.Error(t, err)
}

// openSQLite connects to a fresh file database seeded with the waste
// management tables.
func openSQLite(t *testing.T, companies int) *DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "manajemensampah.db")

	d, err := Connect(ctx, config.Database{Driver: config.DriverSQLite, Name: path, SampleRows: 3}, config.SSHConfig{}, applog.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	stmts := []string{
		`CREATE TABLE perusahaan_limbah (
			id INTEGER PRIMARY KEY,
			nama_perusahaan TEXT NOT NULL,
			kota_perusahaan_limbah TEXT DEFAULT 'KOTA BANDUNG'
		)`,
		`CREATE TABLE transportasi (
			id INTEGER PRIMARY KEY,
			perusahaan_id INTEGER REFERENCES perusahaan_limbah(id),
			jenis_kendaraan TEXT NOT NULL
		)`,
	}
	for i := 1; i <= companies; i++ {
		city := "KOTA BANDUNG"
		if i <= 2 {
			city = "KOTA CIMAHI"
		}
		stmts = append(stmts, fmt.Sprintf(
			"INSERT INTO perusahaan_limbah (id, nama_perusahaan, kota_perusahaan_limbah) VALUES (%d, 'PT. %03d', '%s')", i, i, city))
	}
	stmts = append(stmts,
		"INSERT INTO transportasi (perusahaan_id, jenis_kendaraan) VALUES (1, 'DUMP TRUCK'), (1, 'DUMP TRUCK'), (2, 'DUMP TRUCK'), (2, 'PICKUP')",
	)
	for _, s := range stmts {
		_, err := d.conn.ExecContext(ctx, s)
		require.NoError(t, err, s)
	}
	return d
}

func TestSQLiteDescribeSchema(t *testing.T) {
	d := openSQLite(t, 10)
	assert.Equal(t, "SQLite", d.Dialect())

	got, err := d.DescribeSchema(context.Background())
	require.NoError(t, err)

	assert.Contains(t, got, "CREATE TABLE \"perusahaan_limbah\" (\n\t\"id\" INTEGER,\n\t\"nama_perusahaan\" TEXT NOT NULL,\n\t\"kota_perusahaan_limbah\" TEXT DEFAULT 'KOTA BANDUNG',\n\tPRIMARY KEY (\"id\")\n)")
	assert.Contains(t, got, "3 rows from perusahaan_limbah table:\nid\tnama_perusahaan\tkota_perusahaan_limbah\n1\tPT. 001\tKOTA CIMAHI")
	assert.Contains(t, got, "\tFOREIGN KEY (\"perusahaan_id\") REFERENCES \"perusahaan_limbah\" (\"id\")")
	assert.Less(t, strings.Index(got, "perusahaan_limbah"), strings.Index(got, "transportasi"), "tables ordered by name")
}

func TestSQLiteDescribeSchemaIsStable(t *testing.T) {
	d := openSQLite(t, 3)
	ctx := context.Background()

	first, err := d.DescribeSchema(ctx)
	require.NoError(t, err)
	second, err := d.DescribeSchema(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSQLiteDescribeSchemaReflectsCatalogChanges(t *testing.T) {
	d := openSQLite(t, 3)
	ctx := context.Background()

	before, err := d.DescribeSchema(ctx)
	require.NoError(t, err)
	assert.NotContains(t, before, "pengolahan_anorganik")

	_, err = d.conn.ExecContext(ctx, "CREATE TABLE pengolahan_anorganik (id INTEGER PRIMARY KEY, cara_pengolahan TEXT)")
	require.NoError(t, err)

	after, err := d.DescribeSchema(ctx)
	require.NoError(t, err)
	assert.Contains(t, after, `CREATE TABLE "pengolahan_anorganik"`)
}

func TestSQLiteExecute(t *testing.T) {
	d := openSQLite(t, 10)
	ctx := context.Background()

	tests := []struct {
		query string
		want  string
	}{
		{"SELECT COUNT(*) FROM PERUSAHAAN_LIMBAH;", "[(10,)]"},
		{"SELECT COUNT(*) FROM PERUSAHAAN_LIMBAH WHERE kota_perusahaan_limbah = 'KOTA CIMAHI';", "[(2,)]"},
		{"SELECT COUNT(*) FROM transportasi WHERE jenis_kendaraan = 'DUMP TRUCK';", "[(3,)]"},
		{"SELECT nama_perusahaan FROM perusahaan_limbah WHERE kota_perusahaan_limbah = 'KOTA CIMAHI' ORDER BY id", "[('PT. 001',), ('PT. 002',)]"},
		{"SELECT id, NULL FROM perusahaan_limbah WHERE id = 1", "[(1, None)]"},
		{"SELECT * FROM transportasi WHERE 1 = 0", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := d.Execute(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.String())
		})
	}
}

func TestSQLiteExecuteError(t *testing.T) {
	d := openSQLite(t, 1)

	_, err := d.Execute(context.Background(), "SELECT * FROM no_such_table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_table")
}

func TestConnectUnsupportedDriver(t *testing.T) {
	_, err := Connect(context.Background(), config.Database{Driver: "oracle", Name: "x"}, config.SSHConfig{}, applog.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestConnectUnreachableMySQL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, config.Database{
		Driver: config.DriverMySQL, Host: "127.0.0.1", Port: 1, User: "root", Password: "secret", Name: "manajemensampah",
	}, config.SSHConfig{}, applog.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql ping")
}
