// Package parquet provides a RecordSource backed by Parquet files of
// article rows (page_id, title, text), read with xitongsys/parquet-go.
package parquet
