// Package ddl builds DuckDB statements for dataset loads, scans, and secrets.
package ddl

import "fmt"

// CreateTableFromCSV returns the full-replace load statement:
//
//	CREATE OR REPLACE TABLE "t" AS SELECT * FROM read_csv(['path'], header = true)
//
// The header row supplies the column names verbatim; everything else is the
// reader's default type sniffing. CREATE OR REPLACE is transactional in
// DuckDB, so a failed load leaves any previous table contents intact.
func CreateTableFromCSV(table, csvPath string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if csvPath == "" {
		return "", fmt.Errorf("csv path is required")
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv([%s], header = true)",
		QuoteIdentifier(table),
		QuoteLiteral(csvPath),
	), nil
}

// DescribeCSV returns a DESCRIBE statement that discovers the file's columns
// and sniffed types without loading any rows.
func DescribeCSV(csvPath string) (string, error) {
	if csvPath == "" {
		return "", fmt.Errorf("csv path is required")
	}
	return fmt.Sprintf("DESCRIBE SELECT * FROM read_csv([%s], header = true) LIMIT 0",
		QuoteLiteral(csvPath),
	), nil
}

// SelectAll returns the unordered full-table scan for a dataset.
func SelectAll(table string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return fmt.Sprintf("SELECT * FROM %s", QuoteIdentifier(table)), nil
}

// SelectWhereContains returns a parameterized case-insensitive substring
// filter on one column. The single ? placeholder takes the search term
// already wrapped in % wildcards.
func SelectWhereContains(table, column string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := ValidateIdentifier(column); err != nil {
		return "", fmt.Errorf("invalid column name: %w", err)
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE LOWER(CAST(%s AS VARCHAR)) LIKE ?",
		QuoteIdentifier(table),
		QuoteIdentifier(column),
	), nil
}

// CountRows returns the row-count query for a dataset.
func CountRows(table string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return fmt.Sprintf("SELECT count(*) FROM %s", QuoteIdentifier(table)), nil
}

// DropTable returns DROP TABLE IF EXISTS "t".
func DropTable(table string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", QuoteIdentifier(table)), nil
}

// CreateS3Secret returns a DuckDB DDL statement to create an S3 secret, so
// s3:// CSV paths read through httpfs with these credentials.
func CreateS3Secret(name, keyID, secret, endpoint, region, urlStyle string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	return fmt.Sprintf(`CREATE SECRET %s (
	TYPE S3,
	KEY_ID %s,
	SECRET %s,
	ENDPOINT %s,
	REGION %s,
	URL_STYLE %s
)`,
		QuoteIdentifier(name),
		QuoteLiteral(keyID),
		QuoteLiteral(secret),
		QuoteLiteral(endpoint),
		QuoteLiteral(region),
		QuoteLiteral(urlStyle),
	), nil
}

// DropSecret returns a DuckDB DDL statement: DROP SECRET IF EXISTS "<name>".
func DropSecret(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	return fmt.Sprintf("DROP SECRET IF EXISTS %s", QuoteIdentifier(name)), nil
}
