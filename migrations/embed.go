// Package migrations embeds the versioned BigQuery DDL applied by cmd/migrate.
package migrations

import "embed"

// BigQuery holds files named NNNN_name.sql under bigquery/.
//
//go:embed bigquery/*.sql
var BigQuery embed.FS

// BigQueryDir is the directory inside BigQuery that holds the files.
const BigQueryDir = "bigquery"
